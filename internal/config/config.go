// Package config provides configuration management for the trading journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "trading-journal/internal/errors"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Default storage keys, matching the keys the journal has always used.
const (
	DefaultTradesKey    = "trading-journal-trades"
	DefaultChecklistKey = "trading-journal-checklist"
)

// Config holds all application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Journal JournalConfig `mapstructure:"journal"`
	Export  ExportConfig  `mapstructure:"export"`
	Logging LoggingConfig `mapstructure:"logging"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	UI      UIConfig      `mapstructure:"ui"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	Backend          string `mapstructure:"backend"` // file, sqlite, memory
	Path             string `mapstructure:"path"`
	TradesKey        string `mapstructure:"trades_key"`
	ChecklistKey     string `mapstructure:"checklist_key"`
	PersistChecklist bool   `mapstructure:"persist_checklist"`
}

// JournalConfig holds journal behaviour configuration.
type JournalConfig struct {
	RequireChecklist bool `mapstructure:"require_checklist"`
}

// ExportConfig holds spreadsheet export configuration.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// AuditConfig holds audit trail configuration.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trading-journal"
	}
	return filepath.Join(home, ".config", "trading-journal")
}

// Default returns the configuration used when no file overrides a value.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return &Config{
		Storage: StorageConfig{
			Backend:          BackendFile,
			Path:             filepath.Join(configDir, "journal.json"),
			TradesKey:        DefaultTradesKey,
			ChecklistKey:     DefaultChecklistKey,
			PersistChecklist: true,
		},
		Journal: JournalConfig{RequireChecklist: true},
		Export:  ExportConfig{Dir: "."},
		Logging: LoggingConfig{
			Level:      "info",
			Console:    false,
			File:       true,
			FilePath:   filepath.Join(configDir, "logs", "journal.log"),
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Audit: AuditConfig{
			Enabled: true,
			Dir:     filepath.Join(configDir, "audit"),
		},
		UI: UIConfig{
			ColorEnabled: true,
			DateFormat:   "2006-01-02",
		},
		Dir: configDir,
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	loadDotEnv(configDir)

	cfg := Default(configDir)
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}
	cfg.Dir = configDir

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads .env files without overriding variables already set.
func loadDotEnv(configDir string) {
	for _, path := range []string{filepath.Join(configDir, ".env"), ".env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

func loadConfigFile(configDir, name string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(cfg)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.trades_key", d.Storage.TradesKey)
	v.SetDefault("storage.checklist_key", d.Storage.ChecklistKey)
	v.SetDefault("storage.persist_checklist", d.Storage.PersistChecklist)
	v.SetDefault("journal.require_checklist", d.Journal.RequireChecklist)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.file_path", d.Logging.FilePath)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.dir", d.Audit.Dir)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("ui.color_enabled", d.UI.ColorEnabled)
	v.SetDefault("ui.date_format", d.UI.DateFormat)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JOURNAL_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("JOURNAL_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("JOURNAL_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("JOURNAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JOURNAL_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for the %s backend", apperrors.ErrConfigInvalid, c.Storage.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q (must be file, sqlite or memory)", apperrors.ErrConfigInvalid, c.Storage.Backend)
	}

	if c.Storage.TradesKey == "" || c.Storage.ChecklistKey == "" {
		return fmt.Errorf("%w: storage keys must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Storage.TradesKey == c.Storage.ChecklistKey {
		return fmt.Errorf("%w: trades_key and checklist_key must differ", apperrors.ErrConfigInvalid)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid log level %q", apperrors.ErrConfigInvalid, c.Logging.Level)
	}

	return nil
}
