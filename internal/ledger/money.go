package ledger

import (
	"fmt"
	"math"
)

// Cents converts a dollar amount to integer cents, rounding half away
// from zero. All ledger arithmetic happens in cents.
func Cents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// Dollars converts cents back to a dollar amount for rendering and
// machine-readable payloads.
func Dollars(cents int64) float64 {
	return float64(cents) / 100
}

// FormatUSD renders cents as a dollar string, e.g. "$50.00".
func FormatUSD(cents int64) string {
	if cents < 0 {
		return fmt.Sprintf("-$%.2f", float64(-cents)/100)
	}
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
