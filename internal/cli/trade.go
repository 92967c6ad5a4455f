package cli

import (
	"github.com/spf13/cobra"

	"trading-journal/internal/analytics"
	"trading-journal/internal/entry"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/journal"
	"trading-journal/internal/models"
)

// addTradeCommands adds trade entry commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Record trades",
		Long:  "Record completed trades in the journal.",
	}

	cmd.AddCommand(newTradeAddCmd(app))
	rootCmd.AddCommand(cmd)
}

func newTradeAddCmd(app *App) *cobra.Command {
	flags := map[string]*string{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a completed trade",
		Long: `Record a completed trade.

Every field is required. The trade is stamped with today's date and a
snapshot of the checklist, and the checklist is cleared afterwards. Entry
is locked until all five checklist rules are checked.`,
		Example: `  journal trade add \
    --context "Trend day, gap up above VWAP" \
    --entry "Breakout of opening range" \
    --bias bullish --direction long \
    --pnl 150 --risk 50 \
    --exit "Target hit"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			j, err := app.openJournal(ctx)
			if err != nil {
				return err
			}

			if err := j.SelectMode(journal.ModeEntry); err != nil {
				if apperrors.Is(err, apperrors.ErrEntryLocked) {
					printLocked(output, j.Checklist())
				}
				return err
			}

			form := entry.NewForm()
			for _, field := range entry.Fields {
				if err := form.Set(field, *flags[field]); err != nil {
					return err
				}
			}

			var recorded models.Trade
			notice, err := form.Submit(func(in models.TradeInput) error {
				t, err := j.AddTrade(ctx, in)
				recorded = t
				return err
			})
			if err != nil {
				if apperrors.Is(err, apperrors.ErrEntryLocked) {
					printLocked(output, j.Checklist())
					return err
				}
				if isValidation(err) {
					j.RecordRejection(ctx, err)
				}
				if !output.IsStructured() {
					output.Notice(notice)
				}
				return err
			}

			if output.IsStructured() {
				return output.Structured(recorded)
			}
			output.Notice(notice)
			output.Println()
			printTradeDetail(output, recorded, app.Config.UI.DateFormat)
			return nil
		},
	}

	bind := func(field, name, usage string) {
		flags[field] = cmd.Flags().String(name, "", usage)
	}
	bind(entry.FieldMarketContext, "context", "market context (trend, range, news...)")
	bind(entry.FieldEntryReason, "entry", "reason for entering")
	bind(entry.FieldBias, "bias", "market bias: Bullish, Bearish or Neutral")
	bind(entry.FieldDirection, "direction", "trade direction: Long or Short")
	bind(entry.FieldPnL, "pnl", "profit or loss in dollars (negative for a loss)")
	bind(entry.FieldRiskAmount, "risk", "amount risked in dollars")
	bind(entry.FieldExitReason, "exit", "reason for exiting")

	return cmd
}

func isValidation(err error) bool {
	return apperrors.Is(err, apperrors.ErrMissingInformation) ||
		apperrors.Is(err, apperrors.ErrInvalidNumber) ||
		apperrors.Is(err, apperrors.ErrInvalidValue)
}

func printLocked(output *Output, c models.Checklist) {
	if output.IsStructured() {
		return
	}
	output.Error("LOCKED: complete all checklist rules before entering a trade (%d/%d completed)",
		c.CompletedCount(), models.RuleCount)
	output.Dim("Run 'journal checklist' to review the rules.")
}

func printTradeDetail(output *Output, t models.Trade, dateFormat string) {
	output.Bold("Trade %s", t.ID)
	output.Printf("  Date:           %s\n", FormatTradeDate(t.Date, dateFormat))
	output.Printf("  Bias:           %s\n", t.Bias)
	output.Printf("  Direction:      %s\n", t.Direction)
	output.Printf("  P&L:            %s\n", output.PnL(t.PnL, analytics.FormatPnL(t.PnL)))
	output.Printf("  Risk:           %s\n", FormatAmount(t.RiskAmount))
	output.Printf("  Risk:Reward:    %s\n", analytics.RiskReward(t))
	output.Println()
	output.Bold("Market Context")
	output.Printf("  %s\n", t.MarketContext)
	output.Bold("Entry Reason")
	output.Printf("  %s\n", t.EntryReason)
	output.Bold("Exit Reason")
	output.Printf("  %s\n", t.ExitReason)
	output.Println()
	output.Bold("Rules Followed: %s", analytics.RulesSummary(t))
	for i, rule := range models.Rules {
		mark := output.Red(RuleMark(false))
		if t.RulesFollowed[i] {
			mark = output.Green(RuleMark(true))
		}
		output.Printf("  %s %s\n", mark, rule)
	}
}
