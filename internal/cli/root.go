package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trading-journal/internal/audit"
	"trading-journal/internal/config"
	"trading-journal/internal/journal"
	"trading-journal/internal/logging"
	"trading-journal/internal/metrics"
	"trading-journal/internal/store"
)

// Version information
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Storage store.Storage
	Journal *journal.Journal
	Audit   *audit.Logger
	Metrics *metrics.Metrics

	// ownsStorage is false when Storage was supplied by the caller.
	ownsStorage bool
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

// Execute runs the CLI and releases storage, audit and metrics afterwards,
// whether or not the command succeeded.
func Execute(ctx context.Context, args []string) error {
	app := &App{}
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if terr := app.teardown(); err == nil {
		err = terr
	}
	return err
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "Trading journal - pre-trade checklist, trade log and statistics",
		Long: `A personal trading journal for discretionary traders.

Work through the pre-trade checklist, record each completed trade with its
context and outcome, then review statistics and export the history to Excel.

  journal checklist            review the five pre-trade rules
  journal trade add ...        record a trade (checklist must be complete)
  journal history              statistics and trade history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trading-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("yaml", false, "output in YAML format")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("storage", "", "storage backend: file, sqlite or memory")
	rootCmd.PersistentFlags().String("data", "", "path of the journal data file")

	addCoreCommands(rootCmd, app)
	addChecklistCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)
	addHelpCommands(rootCmd)

	return rootCmd
}

// setup loads configuration and logging. The journal itself is opened on
// demand by the commands that need it.
func (app *App) setup(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	if backend, _ := cmd.Flags().GetString("storage"); backend != "" {
		cfg.Storage.Backend = backend
		if backend == config.BackendSQLite && filepath.Ext(cfg.Storage.Path) == ".json" {
			cfg.Storage.Path = filepath.Join(cfg.Dir, "journal.db")
		}
	}
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		cfg.Storage.Path = data
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Console = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.UI.ColorEnabled {
		_ = cmd.Flags().Set("no-color", "true")
	}

	app.Config = cfg
	app.Logger = logging.New(cfg.Logging)
	app.Logger.Debug().
		Str("config_dir", cfg.Dir).
		Str("backend", cfg.Storage.Backend).
		Str("command", cmd.CommandPath()).
		Msg("Starting")
	return nil
}

// openJournal opens storage, the audit trail and the journal.
func (app *App) openJournal(ctx context.Context) (*journal.Journal, error) {
	if app.Journal != nil {
		return app.Journal, nil
	}

	if app.Storage == nil {
		s, err := store.Open(app.Config.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		app.Storage = s
		app.ownsStorage = true
	}

	if app.Audit == nil && app.Config.Audit.Enabled {
		a, err := audit.New(audit.DefaultConfig(app.Config.Audit.Dir))
		if err != nil {
			app.Logger.Warn().Err(err).Msg("Audit trail unavailable")
		} else {
			app.Audit = a
		}
	}

	if app.Metrics == nil {
		app.Metrics = metrics.New()
	}

	j, err := journal.Open(ctx, app.Storage,
		journal.WithConfig(app.Config),
		journal.WithLogger(app.Logger),
		journal.WithAudit(app.Audit),
		journal.WithMetrics(app.Metrics),
	)
	if err != nil {
		return nil, err
	}
	app.Journal = j
	return j, nil
}

func (app *App) teardown() error {
	if app.Config != nil && app.Journal != nil {
		if err := app.Metrics.WriteTextfile(app.Config.Metrics.Textfile); err != nil {
			app.Logger.Warn().Err(err).Msg("Failed to write metrics textfile")
		}
	}

	var firstErr error
	if app.Audit != nil {
		if err := app.Audit.Close(); err != nil {
			firstErr = err
		}
		app.Audit = nil
	}
	if app.ownsStorage && app.Storage != nil {
		if err := app.Storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		app.Storage = nil
		app.ownsStorage = false
	}
	app.Journal = nil
	return firstErr
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Structured(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Trading Journal v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Structured(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Structured(map[string]string{"path": app.Config.Dir})
			}
			output.Println(app.Config.Dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsStructured() {
				return output.Structured(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Storage")
	output.Printf("  Backend:           %s\n", cfg.Storage.Backend)
	output.Printf("  Path:              %s\n", cfg.Storage.Path)
	output.Printf("  Trades key:        %s\n", cfg.Storage.TradesKey)
	output.Printf("  Checklist key:     %s\n", cfg.Storage.ChecklistKey)
	output.Printf("  Persist checklist: %v\n", cfg.Storage.PersistChecklist)
	output.Println()

	output.Bold("Journal")
	output.Printf("  Require checklist: %v\n", cfg.Journal.RequireChecklist)
	output.Printf("  Export dir:        %s\n", cfg.Export.Dir)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:             %s\n", cfg.Logging.Level)
	output.Printf("  File:              %s\n", cfg.Logging.FilePath)
	output.Printf("  Audit:             %v (%s)\n", cfg.Audit.Enabled, cfg.Audit.Dir)
	if cfg.Metrics.Textfile != "" {
		output.Printf("  Metrics textfile:  %s\n", cfg.Metrics.Textfile)
	}
}
