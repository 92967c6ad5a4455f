package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Bias represents the trader's market bias at entry.
type Bias string

const (
	BiasBullish Bias = "Bullish"
	BiasBearish Bias = "Bearish"
	BiasNeutral Bias = "Neutral"
)

// Biases lists the valid bias values in display order.
var Biases = []Bias{BiasBullish, BiasBearish, BiasNeutral}

// ParseBias parses a bias name case-insensitively.
func ParseBias(s string) (Bias, error) {
	for _, b := range Biases {
		if strings.EqualFold(strings.TrimSpace(s), string(b)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown bias %q (want Bullish, Bearish or Neutral)", s)
}

// Direction represents the side of a trade.
type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

// Directions lists the valid directions in display order.
var Directions = []Direction{DirectionLong, DirectionShort}

// ParseDirection parses a direction name case-insensitively.
func ParseDirection(s string) (Direction, error) {
	for _, d := range Directions {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown direction %q (want Long or Short)", s)
}

// RuleCount is the number of pre-trade rules on the checklist.
const RuleCount = 5

// Rules is the fixed, ordered pre-trade rule text. Index i of a checklist
// or of Trade.RulesFollowed refers to Rules[i].
var Rules = [RuleCount]string{
	"High volume?",
	"Buying a premium after 6 pm?",
	"FOMO?",
	"Technical Analysis? Daily Bias?",
	"You have a reason to enter?",
}

// RuleHints carries optional clarifications shown under a rule.
var RuleHints = [RuleCount]string{
	2: "Check this if you're NOT trading due to FOMO (Fear of Missing Out)",
}

// RulesFollowed is a snapshot of the checklist, one flag per rule.
type RulesFollowed [RuleCount]bool

// Count returns how many rules are marked as followed.
func (r RulesFollowed) Count() int {
	n := 0
	for _, ok := range r {
		if ok {
			n++
		}
	}
	return n
}

// UnmarshalJSON rejects arrays that are not exactly RuleCount long.
func (r *RulesFollowed) UnmarshalJSON(data []byte) error {
	var flags []bool
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}
	if len(flags) != RuleCount {
		return fmt.Errorf("rulesFollowed: want %d flags, got %d", RuleCount, len(flags))
	}
	copy(r[:], flags)
	return nil
}

// TradeInput is the normalized payload produced by the entry form.
// Identity, date and the rules snapshot are supplied by the journal.
type TradeInput struct {
	MarketContext string    `json:"marketContext"`
	Bias          Bias      `json:"bias"`
	Direction     Direction `json:"direction"`
	PnL           float64   `json:"pnl"`
	RiskAmount    float64   `json:"riskAmount"`
	EntryReason   string    `json:"entryReason"`
	ExitReason    string    `json:"exitReason"`
}

// Trade represents a recorded trade. Trades are never modified after creation.
type Trade struct {
	ID            string        `json:"id" yaml:"id"`
	Date          string        `json:"date" yaml:"date"`
	MarketContext string        `json:"marketContext" yaml:"market_context"`
	Bias          Bias          `json:"bias" yaml:"bias"`
	Direction     Direction     `json:"direction" yaml:"direction"`
	PnL           float64       `json:"pnl" yaml:"pnl"`
	RiskAmount    float64       `json:"riskAmount" yaml:"risk_amount"`
	EntryReason   string        `json:"entryReason" yaml:"entry_reason"`
	ExitReason    string        `json:"exitReason" yaml:"exit_reason"`
	RulesFollowed RulesFollowed `json:"rulesFollowed" yaml:"rules_followed"`
}

// DateLayout is the day-granularity layout used for Trade.Date.
const DateLayout = "2006-01-02"

// NewTrade stamps an input with identity, date and the rules snapshot.
func NewTrade(id, date string, in TradeInput, rules RulesFollowed) Trade {
	return Trade{
		ID:            id,
		Date:          date,
		MarketContext: in.MarketContext,
		Bias:          in.Bias,
		Direction:     in.Direction,
		PnL:           in.PnL,
		RiskAmount:    in.RiskAmount,
		EntryReason:   in.EntryReason,
		ExitReason:    in.ExitReason,
		RulesFollowed: rules,
	}
}

// IsWin reports whether the trade closed in profit.
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// IsLoss reports whether the trade closed at a loss.
func (t Trade) IsLoss() bool {
	return t.PnL < 0
}

// RulesFollowedCount returns the number of rules followed at entry.
func (t Trade) RulesFollowedCount() int {
	return t.RulesFollowed.Count()
}
