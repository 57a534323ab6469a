// Package cache keeps recently collected market data so repeated report
// requests do not hit the upstream API.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache stores msgpack-encodable values under string keys.
type Cache interface {
	// Get decodes the value stored under key into dst. It reports false
	// when the key is absent or expired.
	Get(key string, dst any) (bool, error)
	Set(key string, v any) error
	Close() error
}

// Badger is an in-memory Badger store whose entries expire after a TTL.
type Badger struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadger opens an in-memory store. A non-positive ttl keeps entries
// until Close.
func NewBadger(ttl time.Duration, log zerolog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(badgerLogger{log: log.With().Str("component", "cache").Logger()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db, ttl: ttl}, nil
}

func (b *Badger) Get(key string, dst any) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, dst)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return true, nil
}

func (b *Badger) Set(key string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(string, any) (bool, error) { return false, nil }
func (Nop) Set(string, any) error         { return nil }
func (Nop) Close() error                  { return nil }

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(f string, v ...any)   { l.log.Error().Msgf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...any) { l.log.Warn().Msgf(f, v...) }
func (l badgerLogger) Infof(f string, v ...any)    { l.log.Debug().Msgf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...any)   { l.log.Trace().Msgf(f, v...) }
