// Package entry implements the trade entry form: a draft of raw field values
// that is validated and normalized into a models.TradeInput on submit.
package entry

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
)

// Field names accepted by Form.Set.
const (
	FieldMarketContext = "marketContext"
	FieldBias          = "bias"
	FieldDirection     = "direction"
	FieldPnL           = "pnl"
	FieldRiskAmount    = "riskAmount"
	FieldEntryReason   = "entryReason"
	FieldExitReason    = "exitReason"
)

// Fields lists the draft fields in form order.
var Fields = []string{
	FieldMarketContext,
	FieldEntryReason,
	FieldBias,
	FieldDirection,
	FieldPnL,
	FieldRiskAmount,
	FieldExitReason,
}

// Draft holds the raw, unvalidated form values.
type Draft struct {
	MarketContext string `json:"marketContext" validate:"required"`
	Bias          string `json:"bias" validate:"required,oneof=Bullish Bearish Neutral"`
	Direction     string `json:"direction" validate:"required,oneof=Long Short"`
	PnL           string `json:"pnl" validate:"required"`
	RiskAmount    string `json:"riskAmount" validate:"required"`
	EntryReason   string `json:"entryReason" validate:"required"`
	ExitReason    string `json:"exitReason" validate:"required"`
}

// NoticeVariant distinguishes success notices from failures.
type NoticeVariant string

const (
	NoticeDefault     NoticeVariant = "default"
	NoticeDestructive NoticeVariant = "destructive"
)

// Notice is the user-facing message produced by a submit attempt.
type Notice struct {
	Title       string
	Description string
	Variant     NoticeVariant
}

var (
	noticeMissing = Notice{
		Title:       "Missing Information",
		Description: "Please fill in all required fields.",
		Variant:     NoticeDestructive,
	}
	noticeRecorded = Notice{
		Title:       "Trade Recorded",
		Description: "Your trade has been successfully added to the journal.",
		Variant:     NoticeDefault,
	}
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Form is the trade entry form. The zero value is an empty form.
type Form struct {
	draft Draft
}

// NewForm creates an empty form.
func NewForm() *Form {
	return &Form{}
}

// Draft returns the current draft values.
func (f *Form) Draft() Draft {
	return f.draft
}

// Set edits a single draft field. Bias and direction are normalized to their
// canonical spelling when they name a known value.
func (f *Form) Set(field, value string) error {
	switch field {
	case FieldMarketContext:
		f.draft.MarketContext = value
	case FieldBias:
		if b, err := models.ParseBias(value); err == nil {
			value = string(b)
		}
		f.draft.Bias = value
	case FieldDirection:
		if d, err := models.ParseDirection(value); err == nil {
			value = string(d)
		}
		f.draft.Direction = value
	case FieldPnL:
		f.draft.PnL = value
	case FieldRiskAmount:
		f.draft.RiskAmount = value
	case FieldEntryReason:
		f.draft.EntryReason = value
	case FieldExitReason:
		f.draft.ExitReason = value
	default:
		return apperrors.NewValidationError("field", field, "unknown form field", apperrors.ErrInvalidValue)
	}
	return nil
}

// Clear resets every field to empty.
func (f *Form) Clear() {
	f.draft = Draft{}
}

// Submit validates the draft and, when it is complete and well formed, passes
// the normalized trade to onSubmit. The draft is cleared only when onSubmit
// succeeds; on any failure it is kept for correction.
func (f *Form) Submit(onSubmit func(models.TradeInput) error) (Notice, error) {
	in, notice, err := f.normalize()
	if err != nil {
		return notice, err
	}

	if err := onSubmit(in); err != nil {
		return Notice{
			Title:       "Trade Not Recorded",
			Description: err.Error(),
			Variant:     NoticeDestructive,
		}, err
	}

	f.Clear()
	return noticeRecorded, nil
}

// Validate checks the draft without submitting it.
func (f *Form) Validate() (models.TradeInput, error) {
	in, _, err := f.normalize()
	return in, err
}

func (f *Form) normalize() (models.TradeInput, Notice, error) {
	d := f.draft
	trimmed := Draft{
		MarketContext: strings.TrimSpace(d.MarketContext),
		Bias:          strings.TrimSpace(d.Bias),
		Direction:     strings.TrimSpace(d.Direction),
		PnL:           strings.TrimSpace(d.PnL),
		RiskAmount:    strings.TrimSpace(d.RiskAmount),
		EntryReason:   strings.TrimSpace(d.EntryReason),
		ExitReason:    strings.TrimSpace(d.ExitReason),
	}

	if missing := missingFields(trimmed); len(missing) > 0 {
		return models.TradeInput{}, noticeMissing, &apperrors.MissingFieldsError{Fields: missing}
	}

	if err := getValidator().Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if apperrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg := fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
			return models.TradeInput{}, invalidNotice(fe.Field(), msg),
				apperrors.NewValidationError(fe.Field(), fe.Value(), msg, apperrors.ErrInvalidValue)
		}
		return models.TradeInput{}, invalidNotice("form", err.Error()), err
	}

	pnl, err := parseAmount(FieldPnL, trimmed.PnL)
	if err != nil {
		return models.TradeInput{}, numberNotice(FieldPnL), err
	}
	risk, err := parseAmount(FieldRiskAmount, trimmed.RiskAmount)
	if err != nil {
		return models.TradeInput{}, numberNotice(FieldRiskAmount), err
	}
	if risk < 0 {
		msg := "risk amount cannot be negative"
		return models.TradeInput{}, invalidNotice(FieldRiskAmount, msg),
			apperrors.NewValidationError(FieldRiskAmount, trimmed.RiskAmount, msg, apperrors.ErrInvalidNumber)
	}

	return models.TradeInput{
		MarketContext: d.MarketContext,
		Bias:          models.Bias(trimmed.Bias),
		Direction:     models.Direction(trimmed.Direction),
		PnL:           pnl,
		RiskAmount:    risk,
		EntryReason:   d.EntryReason,
		ExitReason:    d.ExitReason,
	}, Notice{}, nil
}

func missingFields(d Draft) []string {
	var missing []string
	for _, fv := range []struct {
		name, value string
	}{
		{FieldMarketContext, d.MarketContext},
		{FieldBias, d.Bias},
		{FieldDirection, d.Direction},
		{FieldPnL, d.PnL},
		{FieldRiskAmount, d.RiskAmount},
		{FieldEntryReason, d.EntryReason},
		{FieldExitReason, d.ExitReason},
	} {
		if fv.value == "" {
			missing = append(missing, fv.name)
		}
	}
	return missing
}

// parseAmount parses a dollar amount such as "150", "-40", "$1,200.50" or
// "-$40.00", rejecting NaN and infinities.
func parseAmount(field, s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	s = sign + strings.TrimPrefix(s, "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.NewValidationError(field, s, "not a valid number", apperrors.ErrInvalidNumber)
	}
	return v, nil
}

func numberNotice(field string) Notice {
	return Notice{
		Title:       "Invalid Number",
		Description: fmt.Sprintf("Please enter a valid amount for %s.", field),
		Variant:     NoticeDestructive,
	}
}

func invalidNotice(field, msg string) Notice {
	return Notice{
		Title:       "Invalid Information",
		Description: fmt.Sprintf("%s %s.", field, msg),
		Variant:     NoticeDestructive,
	}
}
