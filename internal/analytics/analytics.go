// Package analytics derives performance statistics from recorded trades.
package analytics

import (
	"fmt"
	"math"

	"trading-journal/internal/models"
	"trading-journal/pkg/utils"
)

// Stats summarizes a trade collection.
type Stats struct {
	TotalTrades int     `json:"totalTrades" yaml:"total_trades"`
	Wins        int     `json:"wins" yaml:"wins"`
	Losses      int     `json:"losses" yaml:"losses"`
	Breakeven   int     `json:"breakeven" yaml:"breakeven"`
	TotalPnL    float64 `json:"totalPnl" yaml:"total_pnl"`
	WinRate     float64 `json:"winRate" yaml:"win_rate"`
	AvgWin      float64 `json:"avgWin" yaml:"avg_win"`
	AvgLoss     float64 `json:"avgLoss" yaml:"avg_loss"`
	// BestTrade and WorstTrade are the extreme PnL values.
	BestTrade  float64 `json:"bestTrade" yaml:"best_trade"`
	WorstTrade float64 `json:"worstTrade" yaml:"worst_trade"`
	// AvgRulesFollowed is the mean number of checklist rules followed at entry.
	AvgRulesFollowed float64 `json:"avgRulesFollowed" yaml:"avg_rules_followed"`
	// DisciplinedTrades counts trades entered with every rule followed.
	DisciplinedTrades int `json:"disciplinedTrades" yaml:"disciplined_trades"`
}

// Compute derives statistics from trades. ok is false when there are no
// trades, in which case no statistics are meaningful.
func Compute(trades []models.Trade) (Stats, bool) {
	if len(trades) == 0 {
		return Stats{}, false
	}

	s := Stats{TotalTrades: len(trades)}
	var winSum, lossSum float64
	rules := 0

	for i, t := range trades {
		s.TotalPnL += t.PnL
		switch {
		case t.IsWin():
			s.Wins++
			winSum += t.PnL
		case t.IsLoss():
			s.Losses++
			lossSum += t.PnL
		default:
			s.Breakeven++
		}

		if i == 0 || t.PnL > s.BestTrade {
			s.BestTrade = t.PnL
		}
		if i == 0 || t.PnL < s.WorstTrade {
			s.WorstTrade = t.PnL
		}

		n := t.RulesFollowedCount()
		rules += n
		if n == models.RuleCount {
			s.DisciplinedTrades++
		}
	}

	s.WinRate = float64(s.Wins) / float64(s.TotalTrades) * 100
	if s.Wins > 0 {
		s.AvgWin = winSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = lossSum / float64(s.Losses)
	}
	s.AvgRulesFollowed = float64(rules) / float64(s.TotalTrades)
	return s, true
}

// Cards is the display form of the four headline statistics.
type Cards struct {
	TotalPnL string `json:"totalPnl" yaml:"total_pnl"`
	WinRate  string `json:"winRate" yaml:"win_rate"`
	AvgWin   string `json:"avgWin" yaml:"avg_win"`
	AvgLoss  string `json:"avgLoss" yaml:"avg_loss"`
}

// Cards formats the headline statistics.
func (s Stats) Cards() Cards {
	return Cards{
		TotalPnL: FormatPnL(s.TotalPnL),
		WinRate:  FormatWinRate(s.WinRate),
		AvgWin:   utils.FormatUSD(s.AvgWin),
		AvgLoss:  utils.FormatUSD(s.AvgLoss),
	}
}

// Counters are the history header counts. Unlike Stats they are defined
// for an empty collection.
type Counters struct {
	Total   int `json:"total" yaml:"total"`
	Winning int `json:"winning" yaml:"winning"`
	Losing  int `json:"losing" yaml:"losing"`
}

// Summary counts total, winning and losing trades.
func Summary(trades []models.Trade) Counters {
	c := Counters{Total: len(trades)}
	for _, t := range trades {
		if t.IsWin() {
			c.Winning++
		} else if t.IsLoss() {
			c.Losing++
		}
	}
	return c
}

// RiskReward returns "1:x.xx" (|pnl| over risk) for a trade with positive
// risk, "N/A" otherwise.
func RiskReward(t models.Trade) string {
	if t.RiskAmount <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("1:%.2f", math.Abs(t.PnL)/t.RiskAmount)
}

// FormatPnL formats a profit or loss with an explicit sign.
func FormatPnL(pnl float64) string {
	return utils.FormatSignedUSD(pnl)
}

// FormatWinRate formats a win rate percentage.
func FormatWinRate(rate float64) string {
	return utils.FormatPercent(rate)
}

// RulesSummary returns "n/5" for the rules followed at entry.
func RulesSummary(t models.Trade) string {
	return fmt.Sprintf("%d/%d", t.RulesFollowedCount(), models.RuleCount)
}
