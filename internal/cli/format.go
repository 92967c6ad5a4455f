package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
)

// FormatTradeDate reformats a stored trade date with the configured layout.
// Dates that do not parse are returned unchanged.
func FormatTradeDate(date, layout string) string {
	if layout == "" || layout == models.DateLayout {
		return date
	}
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(layout)
}

// FormatAmount formats a plain dollar amount with two decimals.
func FormatAmount(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// RuleMark returns a check or cross for a rule flag.
func RuleMark(followed bool) string {
	if followed {
		return "✓"
	}
	return "✗"
}

// ParseRuleNumbers parses 1-based rule numbers into zero-based indexes.
func ParseRuleNumbers(args []string) ([]int, error) {
	idx := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil || n < 1 || n > models.RuleCount {
			return nil, apperrors.NewValidationError("rule", a,
				fmt.Sprintf("rule number must be between 1 and %d", models.RuleCount), apperrors.ErrInvalidValue)
		}
		idx = append(idx, n-1)
	}
	return idx, nil
}

// PadRight pads a string to the right.
func PadRight(s string, length int) string {
	if n := visibleLen(s); n < length {
		return s + strings.Repeat(" ", length-n)
	}
	return s
}
