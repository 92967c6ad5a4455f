package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trading Journal Configuration

[storage]
# Backend: "file", "sqlite" or "memory"
backend = "file"
# Path of the journal file or SQLite database (defaults to the config directory)
# path = "~/.config/trading-journal/journal.json"
trades_key = "trading-journal-trades"
checklist_key = "trading-journal-checklist"
# Keep the pre-trade checklist between invocations
persist_checklist = true

[journal]
# Refuse trade entry until every checklist rule is checked
require_checklist = true

[export]
# Directory for trading-journal-<date>.xlsx files
dir = "."

[logging]
# Level: debug, info, warn, error
level = "info"
console = false
file = true
max_size = 10
max_backups = 5
max_age = 30

[audit]
enabled = true

[metrics]
# Prometheus textfile collector output, empty to disable
textfile = ""

[ui]
color_enabled = true
date_format = "2006-01-02"
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
