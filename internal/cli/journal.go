package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trading-journal/internal/analytics"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/journal"
	"trading-journal/internal/models"
	"trading-journal/pkg/utils"
)

// addHistoryCommands adds the review commands: history, stats and export.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	history := &cobra.Command{
		Use:   "history",
		Short: "Trade history and statistics",
		Long:  "Show performance statistics and every recorded trade, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := app.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			_ = j.SelectMode(journal.ModeHistory)
			return renderHistory(NewOutput(cmd), j.Trades(), app.Config.UI.DateFormat)
		},
	}
	history.AddCommand(newHistoryShowCmd(app))

	rootCmd.AddCommand(history)
	rootCmd.AddCommand(newStatsCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
}

func newHistoryShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show the details of one trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			j, err := app.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			t, err := j.Trade(args[0])
			if err != nil {
				if apperrors.Is(err, apperrors.ErrTradeNotFound) && !output.IsStructured() {
					output.Error("Trade %s not found", args[0])
				}
				return err
			}
			if output.IsStructured() {
				return output.Structured(t)
			}
			printTradeDetail(output, t, app.Config.UI.DateFormat)
			return nil
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show performance statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			j, err := app.openJournal(cmd.Context())
			if err != nil {
				return err
			}

			trades := j.Trades()
			stats, ok := analytics.Compute(trades)
			if output.IsStructured() {
				return output.Structured(statsView{
					Counters: analytics.Summary(trades),
					Stats:    statsOrNil(stats, ok),
				})
			}
			if !ok {
				output.Info("No trades recorded yet")
				return nil
			}
			renderStats(output, stats)
			return nil
		},
	}
}

func newExportCmd(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal to an Excel workbook",
		Long: `Export every recorded trade to trading-journal-<date>.xlsx.

The workbook has one row per trade including each checklist rule as
Yes/No and a risk-reward column.`,
		Example: `  journal export
  journal export --dir ~/Documents`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			j, err := app.openJournal(cmd.Context())
			if err != nil {
				return err
			}

			if dir == "" {
				dir = app.Config.Export.Dir
			}
			res, err := j.Export(cmd.Context(), dir)
			if apperrors.Is(err, apperrors.ErrNoDataToExport) {
				if output.IsStructured() {
					return output.Structured(map[string]string{"error": "No data to export"})
				}
				output.Warning("No data to export: record a trade first")
				return nil
			}
			if err != nil {
				return err
			}

			if output.IsStructured() {
				return output.Structured(res)
			}
			output.Success("✓ Exported %d trades", res.Rows)
			output.Printf("  File:     %s\n", res.Path)
			output.Printf("  Checksum: %s\n", output.DimText(res.Checksum))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from config)")
	return cmd
}

type historyView struct {
	Counters analytics.Counters `json:"counters" yaml:"counters"`
	Stats    *analytics.Stats   `json:"stats" yaml:"stats"`
	Trades   []models.Trade     `json:"trades" yaml:"trades"`
}

type statsView struct {
	Counters analytics.Counters `json:"counters" yaml:"counters"`
	Stats    *analytics.Stats   `json:"stats" yaml:"stats"`
}

func statsOrNil(s analytics.Stats, ok bool) *analytics.Stats {
	if !ok {
		return nil
	}
	return &s
}

func renderHistory(output *Output, trades []models.Trade, dateFormat string) error {
	counters := analytics.Summary(trades)
	stats, ok := analytics.Compute(trades)

	if output.IsStructured() {
		return output.Structured(historyView{
			Counters: counters,
			Stats:    statsOrNil(stats, ok),
			Trades:   trades,
		})
	}

	output.Bold("Trade History")
	output.Printf("  Total: %d   %s   %s\n",
		counters.Total,
		output.Green(fmt.Sprintf("Winning: %d", counters.Winning)),
		output.Red(fmt.Sprintf("Losing: %d", counters.Losing)),
	)
	output.Println()

	if !ok {
		output.Info("No trades recorded yet")
		output.Dim("Complete the checklist and run 'journal trade add' to record your first trade.")
		return nil
	}

	renderStats(output, stats)
	output.Println()

	table := NewTable(output, "Date", "Bias", "Direction", "P&L", "Risk", "R:R", "Rules", "ID")
	for _, t := range trades {
		table.AddRow(
			FormatTradeDate(t.Date, dateFormat),
			string(t.Bias),
			string(t.Direction),
			output.PnL(t.PnL, analytics.FormatPnL(t.PnL)),
			FormatAmount(t.RiskAmount),
			analytics.RiskReward(t),
			analytics.RulesSummary(t),
			t.ID,
		)
	}
	table.Render()
	return nil
}

func renderStats(output *Output, stats analytics.Stats) {
	cards := stats.Cards()
	output.Box("Statistics", []string{
		PadRight("Total P&L", 12) + output.PnL(stats.TotalPnL, cards.TotalPnL),
		PadRight("Win Rate", 12) + cards.WinRate,
		PadRight("Avg Win", 12) + output.Green(cards.AvgWin),
		PadRight("Avg Loss", 12) + output.Red(cards.AvgLoss),
		output.DimText(fmt.Sprintf("Best %s / Worst %s, %d of %d trades with all rules followed",
			utils.FormatSignedUSD(stats.BestTrade), utils.FormatSignedUSD(stats.WorstTrade),
			stats.DisciplinedTrades, stats.TotalTrades)),
	})
}
