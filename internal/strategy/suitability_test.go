package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"StockLens/internal/model"
)

func grid(r model.Rating) model.ScreeningResult {
	g := model.ScreeningResult{}
	for _, f := range model.ScreeningFactors {
		g[f] = r
	}
	return g
}

func TestLongTerm_HardFailOnCashFlow(t *testing.T) {
	s := sampleSnapshot()
	s.OperatingCashflow = -15e9
	g := Screen(s, model.USD)
	assert.Equal(t, model.RatingPoor, g[model.FactorPositiveCF])

	res := LongTerm(g)
	assert.Equal(t, model.RatingPoor, res.Rating)
	assert.Equal(t, []string{model.FactorPositiveCF}, res.HardFailFactors)
}

func TestLongTerm_HardFailOverridesAllExcellent(t *testing.T) {
	for _, f := range hardFailFactors {
		g := grid(model.RatingExcellent)
		g[f] = model.RatingPoor
		res := LongTerm(g)
		assert.Equal(t, model.RatingPoor, res.Rating, f)
		assert.Equal(t, 9, res.ExcellentCount)
	}
}

func TestLongTerm_Tiers(t *testing.T) {
	g := grid(model.RatingFair)
	assert.Equal(t, model.RatingFair, LongTerm(g).Rating)

	g[model.FactorROE] = model.RatingGood
	g[model.FactorPER] = model.RatingGood
	g[model.FactorPBR] = model.RatingGood
	assert.Equal(t, model.RatingGood, LongTerm(g).Rating)

	g[model.FactorROA] = model.RatingExcellent
	g[model.FactorEPS] = model.RatingGood
	res := LongTerm(g)
	assert.Equal(t, 5, res.GoodOrBetterCount)
	assert.Equal(t, 1, res.ExcellentCount)
	assert.Equal(t, model.RatingGood, res.Rating)

	g[model.FactorEPS] = model.RatingExcellent
	assert.Equal(t, model.RatingExcellent, LongTerm(g).Rating)
}

func TestLongTerm_ScenarioSnapshot(t *testing.T) {
	res := LongTerm(Screen(sampleSnapshot(), model.USD))
	assert.Equal(t, 5, res.ExcellentCount)
	assert.Equal(t, 9, res.GoodOrBetterCount)
	assert.Equal(t, model.RatingExcellent, res.Rating)
	assert.Empty(t, res.HardFailFactors)
}
