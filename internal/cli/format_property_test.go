package cli

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
)

// Rule numbers 1..5 map to indexes 0..4; anything else is rejected.
func TestProperty_ParseRuleNumbers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("valid rule numbers map to zero-based indexes", prop.ForAll(
		func(n int) bool {
			idx, err := ParseRuleNumbers([]string{strconv.Itoa(n)})
			return err == nil && len(idx) == 1 && idx[0] == n-1
		},
		gen.IntRange(1, models.RuleCount),
	))

	properties.Property("out of range rule numbers are rejected", prop.ForAll(
		func(n int) bool {
			if n >= 1 && n <= models.RuleCount {
				return true
			}
			_, err := ParseRuleNumbers([]string{strconv.Itoa(n)})
			return apperrors.Is(err, apperrors.ErrInvalidValue)
		},
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}

func TestParseRuleNumbers(t *testing.T) {
	idx, err := ParseRuleNumbers([]string{"1", " 3", "5"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, idx)

	_, err = ParseRuleNumbers([]string{"2", "two"})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidValue))
}

func TestFormatTradeDate(t *testing.T) {
	tests := []struct {
		date, layout, want string
	}{
		{"2026-10-19", "", "2026-10-19"},
		{"2026-10-19", "2006-01-02", "2026-10-19"},
		{"2026-10-19", "02 Jan 2006", "19 Oct 2026"},
		{"Oct 19", "02 Jan 2006", "Oct 19"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTradeDate(tt.date, tt.layout), tt.layout)
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "$50.00", FormatAmount(50))
	assert.Equal(t, "✓", RuleMark(true))
	assert.Equal(t, "✗", RuleMark(false))
	assert.Equal(t, "ab  ", PadRight("ab", 4))
	assert.Equal(t, "abcdef", PadRight("abcdef", 4))
	assert.Equal(t, 3, visibleLen("\x1b[32mabc\x1b[0m"))
}
