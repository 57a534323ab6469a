package strategy

import "StockLens/internal/model"

// hardFailFactors rated poor force the worst long-term tier.
var hardFailFactors = []string{model.FactorPositiveCF, model.FactorEquityRatio}

// LongTerm classifies the grid with the default policy.
func LongTerm(grid model.ScreeningResult) model.LongTermSuitability {
	return DefaultPolicy().LongTerm(grid)
}

// LongTerm is a short-circuit classifier: cash-flow or equity-ratio failure
// decides first, then the excellent/good counts.
func (p Policy) LongTerm(grid model.ScreeningResult) model.LongTermSuitability {
	res := model.LongTermSuitability{}
	for _, f := range model.ScreeningFactors {
		switch grid[f] {
		case model.RatingExcellent:
			res.ExcellentCount++
			res.GoodOrBetterCount++
		case model.RatingGood:
			res.GoodOrBetterCount++
		}
	}

	for _, f := range hardFailFactors {
		if r, ok := grid[f]; !ok || r == model.RatingPoor {
			res.HardFailFactors = append(res.HardFailFactors, f)
		}
	}
	sp := p.Suitability
	switch {
	case len(res.HardFailFactors) > 0:
		res.Rating = model.RatingPoor
	case res.GoodOrBetterCount >= sp.BestMinGoodOrBetter && res.ExcellentCount >= sp.BestMinExcellent:
		res.Rating = model.RatingExcellent
	case res.GoodOrBetterCount >= sp.SecondMinGoodOrBetter:
		res.Rating = model.RatingGood
	default:
		res.Rating = model.RatingFair
	}
	return res
}
