// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatUSD formats an amount as dollars with two decimals and the sign
// ahead of the symbol, e.g. 1234.5 -> "$1234.50", -40 -> "-$40.00".
// Amounts that round to zero print as "$0.00".
func FormatUSD(amount float64) string {
	str := fmt.Sprintf("%.2f", math.Abs(amount))
	if amount < 0 && str != "0.00" {
		return "-$" + str
	}
	return "$" + str
}

// FormatSignedUSD formats an amount with an explicit "+" for non-negative values.
func FormatSignedUSD(amount float64) string {
	s := FormatUSD(amount)
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}

// FormatPercent formats a percentage with one decimal.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// Truncate shortens s to max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
