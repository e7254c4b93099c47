package reporting

import "github.com/shopspring/decimal"

// Money renders a currency amount with exactly two decimals, rounding half
// away from zero
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Round2 rounds to cents for spreadsheet cells
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Shares renders a share count with six decimals
func Shares(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(6)
}
