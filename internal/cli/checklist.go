package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trading-journal/internal/models"
)

// addChecklistCommands adds the pre-trade checklist commands.
func addChecklistCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "checklist",
		Aliases: []string{"rules"},
		Short:   "Pre-trade rules checklist",
		Long: `Review the pre-trade rules checklist.

All five rules must be checked before a trade can be recorded. The
checklist is cleared automatically after every recorded trade.`,
		Example: `  journal checklist
  journal checklist check 1 2 3 4 5
  journal checklist uncheck 3
  journal checklist reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := app.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			return renderChecklist(NewOutput(cmd), j.Checklist())
		},
	}

	cmd.AddCommand(newChecklistMarkCmd(app, "check", true))
	cmd.AddCommand(newChecklistMarkCmd(app, "uncheck", false))
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Uncheck every rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := app.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			if err := j.ResetChecklist(cmd.Context()); err != nil {
				return err
			}
			return renderChecklist(NewOutput(cmd), j.Checklist())
		},
	})

	rootCmd.AddCommand(cmd)
}

func newChecklistMarkCmd(app *App, use string, checked bool) *cobra.Command {
	short := "Mark rules as followed"
	if !checked {
		short = "Clear rules"
	}
	return &cobra.Command{
		Use:   use + " <rule>...",
		Short: short + " (rule numbers 1-5)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := ParseRuleNumbers(args)
			if err != nil {
				return err
			}
			j, err := app.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			c := j.Checklist()
			for _, i := range rules {
				if c, err = j.ToggleRule(cmd.Context(), i, checked); err != nil {
					return err
				}
			}
			return renderChecklist(NewOutput(cmd), c)
		},
	}
}

type checklistView struct {
	Rules     []ruleView `json:"rules" yaml:"rules"`
	Completed int        `json:"completed" yaml:"completed"`
	Total     int        `json:"total" yaml:"total"`
	CanEnter  bool       `json:"canEnter" yaml:"can_enter"`
}

type ruleView struct {
	Number  int    `json:"number" yaml:"number"`
	Text    string `json:"text" yaml:"text"`
	Hint    string `json:"hint,omitempty" yaml:"hint,omitempty"`
	Checked bool   `json:"checked" yaml:"checked"`
}

func renderChecklist(output *Output, c models.Checklist) error {
	if output.IsStructured() {
		view := checklistView{
			Completed: c.CompletedCount(),
			Total:     models.RuleCount,
			CanEnter:  c.AllCompleted(),
		}
		for i, rule := range models.Rules {
			view.Rules = append(view.Rules, ruleView{
				Number:  i + 1,
				Text:    rule,
				Hint:    models.RuleHints[i],
				Checked: c.Completed[i],
			})
		}
		return output.Structured(view)
	}

	output.Bold("Pre-Trade Checklist")
	output.Println()
	for i, rule := range models.Rules {
		box := "[ ]"
		line := fmt.Sprintf("%d. %s", i+1, rule)
		if c.Completed[i] {
			box = output.Green("[✓]")
			line = output.DimText(line)
		}
		output.Printf("  %s %s\n", box, line)
		if hint := models.RuleHints[i]; hint != "" {
			output.Printf("      %s\n", output.DimText(hint))
		}
	}
	output.Println()
	output.Printf("  %d/%d completed\n", c.CompletedCount(), models.RuleCount)

	if c.AllCompleted() {
		output.Println()
		output.Success("✓ All rules checked. You can now enter a trade: journal trade add")
	}
	return nil
}
