package strategy

import (
	"fmt"
	"math"

	"StockLens/internal/model"
)

// Compare selects how a Step bound is tested.
type Compare int

const (
	AtLeast Compare = iota
	GreaterThan
	AtMost
	LessThan
)

// Step is one rung of a threshold ladder.
type Step struct {
	Bound  float64
	Cmp    Compare
	Points float64
	Rating model.Rating
}

func (s Step) matches(v float64) bool {
	switch s.Cmp {
	case GreaterThan:
		return v > s.Bound
	case AtMost:
		return v <= s.Bound
	case LessThan:
		return v < s.Bound
	default:
		return v >= s.Bound
	}
}

// Ladder is evaluated top to bottom; the first matching step wins, Else
// otherwise. Non-finite values always take Else.
type Ladder struct {
	Steps []Step
	Else  Step
}

// Match returns the step v falls on.
func (l Ladder) Match(v float64) Step {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return l.Else
	}
	for _, s := range l.Steps {
		if s.matches(v) {
			return s
		}
	}
	return l.Else
}

// Range is a closed interval; Max of zero means unbounded.
type Range struct {
	Min float64
	Max float64
}

func (r Range) contains(v float64) bool {
	return v >= r.Min && (r.Max == 0 || v <= r.Max)
}

// CapBands grades market cap in the currency's banding unit.
type CapBands struct {
	Excellent Range
	Good      Range
	FairMin   float64
}

// ScreeningPolicy holds the screening grid cut-offs.
type ScreeningPolicy struct {
	MarketCap   map[model.Currency]CapBands
	ROE         Ladder
	PSR         Ladder
	CashRich    Ladder
	PositiveCF  Ladder
	PER         Ladder
	PBR         Ladder
	ROA         Ladder
	EquityRatio Ladder
	EPS         map[model.Currency]Ladder
}

// CompositePolicy holds the growth-score point ladders and the final tiers.
type CompositePolicy struct {
	CAGR          Ladder
	Acceleration  Ladder
	MarketCap     map[model.Currency]Ladder
	PricePosition Ladder
	ROE           Ladder
	OCFMargin     Ladder
	PER           Ladder
	Tiers         Ladder
}

// SuitabilityPolicy holds the long-term classifier counts.
type SuitabilityPolicy struct {
	BestMinGoodOrBetter   int
	BestMinExcellent      int
	SecondMinGoodOrBetter int
}

// Policy is a versioned set of thresholds.
type Policy struct {
	Version     string
	Screening   ScreeningPolicy
	Growth      CompositePolicy
	Suitability SuitabilityPolicy
}

func tiers(cmp Compare, excellent, good, fair float64) Ladder {
	return Ladder{
		Steps: []Step{
			{Bound: excellent, Cmp: cmp, Rating: model.RatingExcellent},
			{Bound: good, Cmp: cmp, Rating: model.RatingGood},
			{Bound: fair, Cmp: cmp, Rating: model.RatingFair},
		},
		Else: Step{Rating: model.RatingPoor},
	}
}

func pts(bound float64, cmp Compare, points float64, r model.Rating) Step {
	return Step{Bound: bound, Cmp: cmp, Points: points, Rating: r}
}

func sweetSpot(unit float64) Ladder {
	return Ladder{
		Steps: []Step{
			pts(0.3*unit, LessThan, -5, model.RatingPoor),
			pts(1*unit, LessThan, 10, model.RatingGood),
			pts(10*unit, LessThan, 20, model.RatingExcellent),
			pts(50*unit, LessThan, 12, model.RatingGood),
			pts(200*unit, LessThan, 5, model.RatingFair),
		},
		Else: pts(0, AtLeast, -5, model.RatingPoor),
	}
}

// DefaultPolicy is the canonical threshold table.
func DefaultPolicy() Policy {
	return Policy{
		Version: "v2",
		Screening: ScreeningPolicy{
			MarketCap: map[model.Currency]CapBands{
				model.USD: {Excellent: Range{50, 500}, Good: Range{10, 1000}, FairMin: 2},
				model.JPY: {Excellent: Range{50000, 500000}, Good: Range{10000, 1000000}, FairMin: 2000},
			},
			ROE:         tiers(AtLeast, 15, 10, 5),
			PSR:         tiers(LessThan, 1, 2, 3),
			CashRich:    tiers(AtLeast, 50, 20, 10),
			PositiveCF:  tiers(GreaterThan, 0, -10, -20),
			PER:         tiers(AtMost, 15, 20, 30),
			PBR:         tiers(LessThan, 1, 2, 3),
			ROA:         tiers(AtLeast, 8, 5, 3),
			EquityRatio: tiers(AtLeast, 60, 40, 20),
			EPS: map[model.Currency]Ladder{
				model.USD: tiers(AtLeast, 1, 0.5, 0.1),
				model.JPY: tiers(AtLeast, 100, 50, 10),
			},
		},
		Growth: CompositePolicy{
			CAGR: Ladder{
				Steps: []Step{
					pts(35, AtLeast, 30, model.RatingExcellent),
					pts(25, AtLeast, 24, model.RatingExcellent),
					pts(15, AtLeast, 18, model.RatingGood),
					pts(8, AtLeast, 10, model.RatingFair),
				},
				Else: pts(0, AtLeast, 0, model.RatingPoor),
			},
			Acceleration: Ladder{
				Steps: []Step{
					pts(10, AtLeast, 10, model.RatingExcellent),
					pts(0, AtLeast, 5, model.RatingGood),
					pts(-10, AtLeast, -5, model.RatingFair),
				},
				Else: pts(0, AtLeast, -10, model.RatingPoor),
			},
			MarketCap: map[model.Currency]Ladder{
				model.USD: sweetSpot(1),
				model.JPY: sweetSpot(1000),
			},
			PricePosition: Ladder{
				Steps: []Step{
					pts(1.1, AtMost, 15, model.RatingExcellent),
					pts(1.3, AtMost, 10, model.RatingGood),
					pts(1.6, AtMost, 5, model.RatingFair),
					pts(2.0, AtMost, 0, model.RatingPoor),
					pts(3.0, AtMost, -5, model.RatingPoor),
				},
				Else: pts(0, AtLeast, -10, model.RatingPoor),
			},
			ROE: Ladder{
				Steps: []Step{
					pts(20, AtLeast, 10, model.RatingExcellent),
					pts(15, AtLeast, 7, model.RatingGood),
					pts(10, AtLeast, 5, model.RatingGood),
					pts(5, AtLeast, 2, model.RatingFair),
				},
				Else: pts(0, AtLeast, 0, model.RatingPoor),
			},
			OCFMargin: Ladder{
				Steps: []Step{
					pts(20, AtLeast, 5, model.RatingExcellent),
					pts(10, AtLeast, 3, model.RatingGood),
					pts(0, GreaterThan, 1, model.RatingFair),
				},
				Else: pts(0, AtLeast, 0, model.RatingPoor),
			},
			PER: Ladder{
				Steps: []Step{
					pts(15, AtMost, 10, model.RatingExcellent),
					pts(25, AtMost, 7, model.RatingGood),
					pts(40, AtMost, 3, model.RatingFair),
					pts(80, AtMost, 0, model.RatingPoor),
				},
				Else: pts(0, AtLeast, -10, model.RatingPoor),
			},
			Tiers: tiers(AtLeast, 60, 40, 25),
		},
		Suitability: SuitabilityPolicy{
			BestMinGoodOrBetter:   5,
			BestMinExcellent:      2,
			SecondMinGoodOrBetter: 3,
		},
	}
}

// LegacyPolicy is the earlier table with the looser ROA bands.
func LegacyPolicy() Policy {
	p := DefaultPolicy()
	p.Version = "v1"
	p.Screening.ROA = tiers(AtLeast, 5, 3, 1)
	return p
}

// WithROA returns a copy of p with new ROA screening cut-offs.
func (p Policy) WithROA(excellent, good, fair float64) Policy {
	p.Screening.ROA = tiers(AtLeast, excellent, good, fair)
	return p
}

// WithTierThresholds returns a copy of p with new composite tier cut-offs.
func (p Policy) WithTierThresholds(excellent, good, fair float64) Policy {
	p.Growth.Tiers = tiers(AtLeast, excellent, good, fair)
	return p
}

// Validate checks that every ladder evaluates its steps in a consistent order.
func (p Policy) Validate() error {
	ladders := map[string]Ladder{
		"screening.roe":          p.Screening.ROE,
		"screening.psr":          p.Screening.PSR,
		"screening.cash_rich":    p.Screening.CashRich,
		"screening.positive_cf":  p.Screening.PositiveCF,
		"screening.per":          p.Screening.PER,
		"screening.pbr":          p.Screening.PBR,
		"screening.roa":          p.Screening.ROA,
		"screening.equity_ratio": p.Screening.EquityRatio,
		"growth.tiers":           p.Growth.Tiers,
	}
	for name, l := range ladders {
		if err := l.validate(); err != nil {
			return fmt.Errorf("policy %s: %s: %w", p.Version, name, err)
		}
	}
	for _, c := range []model.Currency{model.USD, model.JPY} {
		if _, ok := p.Screening.MarketCap[c]; !ok {
			return fmt.Errorf("policy %s: screening.market_cap missing %s", p.Version, c)
		}
		if _, ok := p.Screening.EPS[c]; !ok {
			return fmt.Errorf("policy %s: screening.eps missing %s", p.Version, c)
		}
		if _, ok := p.Growth.MarketCap[c]; !ok {
			return fmt.Errorf("policy %s: growth.market_cap missing %s", p.Version, c)
		}
	}
	if p.Suitability.BestMinGoodOrBetter < p.Suitability.SecondMinGoodOrBetter {
		return fmt.Errorf("policy %s: suitability best tier needs at least as many good factors as second tier", p.Version)
	}
	return nil
}

// validate requires lower-bound ladders to descend and upper-bound ladders
// to ascend, so no step is shadowed by an earlier one.
func (l Ladder) validate() error {
	if len(l.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	for i := 1; i < len(l.Steps); i++ {
		prev, cur := l.Steps[i-1], l.Steps[i]
		switch cur.Cmp {
		case AtLeast, GreaterThan:
			if cur.Bound > prev.Bound {
				return fmt.Errorf("step %d bound %.2f above step %d bound %.2f", i, cur.Bound, i-1, prev.Bound)
			}
		case AtMost, LessThan:
			if cur.Bound < prev.Bound {
				return fmt.Errorf("step %d bound %.2f below step %d bound %.2f", i, cur.Bound, i-1, prev.Bound)
			}
		}
	}
	return nil
}
