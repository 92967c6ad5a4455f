package cli

import (
	"github.com/spf13/cobra"

	"trading-journal/internal/models"
)

type commandRef struct {
	cmd  string
	desc string
}

type commandCategory struct {
	name     string
	commands []commandRef
}

var commandCategories = []commandCategory{
	{
		name: "Checklist",
		commands: []commandRef{
			{"checklist", "Show the pre-trade rules"},
			{"checklist check <n>...", "Mark rules as followed"},
			{"checklist uncheck <n>...", "Clear rules"},
			{"checklist reset", "Uncheck every rule"},
		},
	},
	{
		name: "Trades",
		commands: []commandRef{
			{"trade add", "Record a completed trade"},
			{"history", "Statistics and trade history"},
			{"history show <id>", "Details of one trade"},
			{"stats", "Performance statistics"},
			{"export", "Export the journal to Excel"},
		},
	},
	{
		name: "Configuration",
		commands: []commandRef{
			{"config show", "Show current configuration"},
			{"config path", "Show configuration directory"},
			{"config validate", "Validate configuration"},
			{"version", "Print version information"},
		},
	},
}

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newQuickstartCmd())
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List all commands by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if output.IsStructured() {
				view := map[string][]string{}
				for _, cat := range commandCategories {
					for _, c := range cat.commands {
						view[cat.name] = append(view[cat.name], c.cmd)
					}
				}
				return output.Structured(view)
			}

			output.Bold("Trading Journal Commands")
			output.Println()
			for _, cat := range commandCategories {
				output.Bold(cat.name)
				for _, c := range cat.commands {
					output.Printf("  %s %s\n", PadRight(c.cmd, 26), output.DimText(c.desc))
				}
				output.Println()
			}
			output.Dim("Use 'journal <command> --help' for details.")
			return nil
		},
	}
}

func newQuickstartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "Walk through recording your first trade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Quickstart")
			output.Println()

			output.Bold("1. Review the checklist")
			for i, rule := range models.Rules {
				output.Printf("     %d. %s\n", i+1, rule)
			}
			output.Printf("   journal checklist check 1 2 3 4 5\n")
			output.Println()

			output.Bold("2. Record the trade")
			output.Printf("   journal trade add --context \"Trend day\" --entry \"ORB\" \\\n")
			output.Printf("     --bias bullish --direction long --pnl 150 --risk 50 --exit \"Target hit\"\n")
			output.Println()

			output.Bold("3. Review")
			output.Printf("   journal history\n")
			output.Printf("   journal export --dir ~/Documents\n")
			output.Println()

			output.Dim("The checklist clears after every trade, so each entry starts from rule one.")
			return nil
		},
	}
}
