// Package logging builds the journal's zerolog logger and its event helpers.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"trading-journal/internal/config"
)

// New builds a logger from the [logging] section. Console output goes to
// stderr so it never mixes with command output; the file sink rotates
// through lumberjack. With neither sink enabled the logger discards.
func New(cfg config.LoggingConfig) zerolog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg config.LoggingConfig, console io.Writer) zerolog.Logger {
	sinks := make([]io.Writer, 0, 2)
	if cfg.Console {
		sinks = append(sinks, consoleSink(console))
	}
	if sink := fileSink(cfg); sink != nil {
		sinks = append(sinks, sink)
	}

	var out io.Writer = io.Discard
	if len(sinks) == 1 {
		out = sinks[0]
	} else if len(sinks) > 1 {
		out = zerolog.MultiLevelWriter(sinks...)
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func consoleSink(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			"operation",
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{"operation"},
	}
}

// fileSink returns nil when file logging is off or the directory cannot be created.
func fileSink(cfg config.LoggingConfig) io.Writer {
	if !cfg.File || cfg.FilePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}
}

// ParseLevel maps a config level name to a zerolog level. Unknown or empty
// names fall back to info.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// WithOperation tags every event with the component that emitted it.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

func WithTradeID(logger zerolog.Logger, tradeID string) zerolog.Logger {
	return logger.With().Str("trade_id", tradeID).Logger()
}

// LogTradeRecorded logs a newly recorded trade.
func LogTradeRecorded(logger zerolog.Logger, tradeID, direction string, pnl, risk float64, rulesFollowed int) {
	logger.Info().
		Str("event", "trade").
		Str("trade_id", tradeID).
		Str("direction", direction).
		Float64("pnl", pnl).
		Float64("risk", risk).
		Int("rules_followed", rulesFollowed).
		Msg("Trade recorded")
}

// LogChecklist logs a checklist change at debug level.
func LogChecklist(logger zerolog.Logger, completed, total int) {
	logger.Debug().
		Str("event", "checklist").
		Int("completed", completed).
		Int("total", total).
		Msg("Checklist updated")
}

func LogExport(logger zerolog.Logger, path string, rows int, checksum string, took time.Duration) {
	logger.Info().
		Str("event", "export").
		Str("path", path).
		Int("rows", rows).
		Str("checksum", checksum).
		Dur("took", took).
		Msg("Journal exported")
}
