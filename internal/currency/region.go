// Package currency decides whether a symbol trades in the domestic (JPY)
// market and converts monetary magnitudes between reporting units.
package currency

import (
	"fmt"
	"regexp"
	"strings"

	"StockLens/internal/model"
)

// DefaultUSDJPY is used when no live rate is available.
const DefaultUSDJPY = 150.0

const (
	billion = 1e9
	oku     = 1e8
)

// Japanese exchange suffixes as used by Yahoo (Tokyo, Nagoya, Fukuoka, Sapporo).
var domesticSuffixes = []string{".T", ".JP", ".N", ".F", ".S"}

// Bare TSE codes: four digits, or three digits plus a letter for new listings.
var numericCode = regexp.MustCompile(`^[0-9]{3}[0-9A-Z]$`)

// Detect returns JPY for domestic symbols and USD otherwise. A reported
// currency from the data source wins when it is one of the two.
func Detect(symbol, reported string) model.Currency {
	switch strings.ToUpper(strings.TrimSpace(reported)) {
	case string(model.JPY):
		return model.JPY
	case string(model.USD):
		return model.USD
	}
	if IsDomestic(symbol) {
		return model.JPY
	}
	return model.USD
}

// IsDomestic reports whether symbol matches the domestic-market pattern.
func IsDomestic(symbol string) bool {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if numericCode.MatchString(s) {
		return true
	}
	for _, suffix := range domesticSuffixes {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			return true
		}
	}
	return false
}

// NormalizeSymbol upper-cases the symbol and appends the Tokyo suffix to bare
// numeric codes so the provider can resolve them.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if numericCode.MatchString(s) {
		return s + ".T"
	}
	return s
}

// ScaleMarketCap converts a raw amount into the banding unit: billions of
// dollars for USD, oku (100 million yen) for JPY.
func ScaleMarketCap(raw float64, c model.Currency) float64 {
	if c == model.JPY {
		return raw / oku
	}
	return raw / billion
}

// UnitLabel is the display unit matching ScaleMarketCap.
func UnitLabel(c model.Currency) string {
	if c == model.JPY {
		return "億円"
	}
	return "B USD"
}

// FormatMarketCap renders a raw market cap in its banding unit.
func FormatMarketCap(raw float64, c model.Currency) string {
	scaled := ScaleMarketCap(raw, c)
	if c == model.JPY {
		return fmt.Sprintf("%.0f%s", scaled, UnitLabel(c))
	}
	return fmt.Sprintf("$%.1fB", scaled)
}

// ToUSD converts an amount to dollars using the USD/JPY rate. A non-positive
// rate falls back to DefaultUSDJPY.
func ToUSD(amount float64, c model.Currency, usdJPY float64) float64 {
	if c != model.JPY {
		return amount
	}
	if usdJPY <= 0 {
		usdJPY = DefaultUSDJPY
	}
	return amount / usdJPY
}

// EquityRatioFromDebtToEquity derives the equity ratio, in percent, from a
// debt-to-equity figure quoted in percent. Non-positive inputs mean no debt.
func EquityRatioFromDebtToEquity(debtToEquity float64) float64 {
	if debtToEquity <= 0 {
		return 100
	}
	return 1 / (1 + debtToEquity/100) * 100
}
