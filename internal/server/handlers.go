package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/model"
	"StockLens/internal/ranking"
)

// ChartResponse is the body of the chart endpoint.
type ChartResponse struct {
	Symbol      string             `json:"symbol"`
	Granularity model.Granularity  `json:"granularity"`
	Points      []model.ChartPoint `json:"points"`
	Stats       *model.Stats       `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	data, err := s.data.Collect(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeFetchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, data.Analyze(s.policy))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	g, ok := model.ParseGranularity(r.URL.Query().Get("granularity"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported granularity %q", r.URL.Query().Get("granularity")))
		return
	}
	data, err := s.data.Collect(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeFetchError(w, err)
		return
	}

	// Stats always cover the daily series so resampling cannot hide an extreme.
	s.writeJSON(w, http.StatusOK, ChartResponse{
		Symbol:      data.Symbol,
		Granularity: g,
		Points:      calculator.ChartPoints(calculator.Resample(data.Prices, g)),
		Stats:       calculator.Summarize(data.Prices),
	})
}

func (s *Server) handleLatestRanking(w http.ResponseWriter, _ *http.Request) {
	res, err := s.ranking.Latest()
	if errors.Is(err, ranking.ErrNoResult) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRefreshRanking(w http.ResponseWriter, r *http.Request) {
	res, err := s.ranking.Run(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Ranking refresh failed")
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// statusFor maps collection errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, collector.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, collector.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, collector.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeFetchError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusBadGateway {
		s.log.Error().Err(err).Msg("Market data collection failed")
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
