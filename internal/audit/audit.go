// Package audit records an append-only trail of journal activity as JSON lines.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EventType represents the type of audit event.
type EventType string

const (
	// Journal events
	EventTradeRecorded    EventType = "TRADE_RECORDED"
	EventChecklistUpdated EventType = "CHECKLIST_UPDATED"
	EventChecklistReset   EventType = "CHECKLIST_RESET"
	EventExportCreated    EventType = "EXPORT_CREATED"

	// Guard events
	EventInputValidation EventType = "INPUT_VALIDATION"
	EventEntryLocked     EventType = "ENTRY_LOCKED"
	EventStoreRecovered  EventType = "STORE_RECOVERED"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType EventType              `json:"event_type"`
	TradeID   string                 `json:"trade_id,omitempty"`
	Action    string                 `json:"action,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Success   bool                   `json:"success"`
	ErrorMsg  string                 `json:"error,omitempty"`
	SessionID string                 `json:"session_id"`
}

// Config holds audit logger configuration.
type Config struct {
	LogDir     string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultConfig returns the audit configuration for a log directory.
func DefaultConfig(dir string) Config {
	return Config{
		LogDir:     dir,
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     365,
		Compress:   true,
	}
}

// Logger appends audit events to a rotating log file. A nil *Logger is a
// valid no-op logger.
type Logger struct {
	writer    io.WriteCloser
	mu        sync.Mutex
	sessionID string
	now       func() time.Time
}

// New creates an audit logger writing to <dir>/audit.log.
func New(cfg Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDir, 0700); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	return NewWithWriter(&lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "audit.log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}), nil
}

// NewWithWriter creates an audit logger over an arbitrary writer.
func NewWithWriter(w io.WriteCloser) *Logger {
	return &Logger{
		writer:    w,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}
}

// SessionID returns the id stamped on every event of this process.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// Log writes an audit event.
func (l *Logger) Log(ctx context.Context, event Event) error {
	if l == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	event.Timestamp = l.now().UTC()
	event.SessionID = l.sessionID

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializing audit event: %w", err)
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Close()
}

// LogTradeRecorded logs a newly recorded trade.
func (l *Logger) LogTradeRecorded(ctx context.Context, tradeID, direction string, pnl, risk float64, rulesFollowed int) error {
	return l.Log(ctx, Event{
		EventType: EventTradeRecorded,
		TradeID:   tradeID,
		Action:    direction,
		Success:   true,
		Details: map[string]interface{}{
			"pnl":            pnl,
			"risk_amount":    risk,
			"rules_followed": rulesFollowed,
		},
	})
}

// LogChecklistUpdated logs a rule being checked or unchecked.
func (l *Logger) LogChecklistUpdated(ctx context.Context, rule int, checked bool, completed int) error {
	return l.Log(ctx, Event{
		EventType: EventChecklistUpdated,
		Success:   true,
		Details: map[string]interface{}{
			"rule":      rule,
			"checked":   checked,
			"completed": completed,
		},
	})
}

// LogChecklistReset logs the checklist being cleared.
func (l *Logger) LogChecklistReset(ctx context.Context, reason string) error {
	return l.Log(ctx, Event{
		EventType: EventChecklistReset,
		Action:    reason,
		Success:   true,
	})
}

// LogExportCreated logs a written export file.
func (l *Logger) LogExportCreated(ctx context.Context, path string, rows int, checksum string) error {
	return l.Log(ctx, Event{
		EventType: EventExportCreated,
		Success:   true,
		Details: map[string]interface{}{
			"path":     path,
			"rows":     rows,
			"checksum": checksum,
		},
	})
}

// LogInputValidation logs a rejected form submission.
func (l *Logger) LogInputValidation(ctx context.Context, field, reason string) error {
	return l.Log(ctx, Event{
		EventType: EventInputValidation,
		Success:   false,
		ErrorMsg:  reason,
		Details: map[string]interface{}{
			"field": field,
		},
	})
}

// LogEntryLocked logs an attempt to record a trade with an incomplete checklist.
func (l *Logger) LogEntryLocked(ctx context.Context, completed int) error {
	return l.Log(ctx, Event{
		EventType: EventEntryLocked,
		Success:   false,
		ErrorMsg:  "checklist incomplete",
		Details: map[string]interface{}{
			"completed": completed,
		},
	})
}

// LogStoreRecovered logs corrupt persisted data being set aside.
func (l *Logger) LogStoreRecovered(ctx context.Context, key, backupKey, reason string) error {
	return l.Log(ctx, Event{
		EventType: EventStoreRecovered,
		Success:   true,
		ErrorMsg:  reason,
		Details: map[string]interface{}{
			"key":        key,
			"backup_key": backupKey,
		},
	})
}
