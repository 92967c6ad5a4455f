// Package journal coordinates the pre-trade checklist, trade recording and
// persistence. It owns the in-memory trade collection and keeps it in step
// with storage.
package journal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trading-journal/internal/audit"
	"trading-journal/internal/config"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/export"
	"trading-journal/internal/id"
	"trading-journal/internal/logging"
	"trading-journal/internal/metrics"
	"trading-journal/internal/models"
	"trading-journal/internal/store"
)

// Mode is the active view of the journal.
type Mode string

const (
	ModeChecklist Mode = "checklist"
	ModeEntry     Mode = "entry"
	ModeHistory   Mode = "history"
)

// Modes lists the view modes in tab order.
var Modes = []Mode{ModeChecklist, ModeEntry, ModeHistory}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", apperrors.NewValidationError("mode", s, "must be checklist, entry or history", apperrors.ErrInvalidValue)
}

// IDGenerator produces unique trade ids.
type IDGenerator interface {
	New() (string, error)
}

// Journal is the trade journal. It is safe for concurrent use within one
// process; separate processes sharing a storage are not coordinated.
type Journal struct {
	mu sync.Mutex

	storage    store.Storage
	trades     *store.TradeRepository
	checklists *store.ChecklistRepository

	logger  zerolog.Logger
	audit   *audit.Logger
	metrics *metrics.Metrics
	ids     IDGenerator
	now     func() time.Time

	requireChecklist bool
	persistChecklist bool
	tradesKey        string
	checklistKey     string

	collection []models.Trade
	checklist  models.Checklist
	mode       Mode
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(j *Journal) { j.logger = logger }
}

// WithAudit sets the audit trail. Nil disables auditing.
func WithAudit(a *audit.Logger) Option {
	return func(j *Journal) { j.audit = a }
}

// WithMetrics sets the metrics sink. Nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(j *Journal) { j.metrics = m }
}

// WithClock sets the clock used to date trades and name exports.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// WithIDGenerator sets the trade id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(j *Journal) { j.ids = g }
}

// WithRequireChecklist controls whether AddTrade refuses entries while the
// checklist is incomplete.
func WithRequireChecklist(require bool) Option {
	return func(j *Journal) { j.requireChecklist = require }
}

// WithPersistChecklist controls whether checklist state survives the process.
func WithPersistChecklist(persist bool) Option {
	return func(j *Journal) { j.persistChecklist = persist }
}

// WithKeys sets the storage keys for trades and checklist.
func WithKeys(tradesKey, checklistKey string) Option {
	return func(j *Journal) {
		j.tradesKey = tradesKey
		j.checklistKey = checklistKey
	}
}

// WithConfig applies the [storage] and [journal] sections.
func WithConfig(cfg *config.Config) Option {
	return func(j *Journal) {
		j.tradesKey = cfg.Storage.TradesKey
		j.checklistKey = cfg.Storage.ChecklistKey
		j.persistChecklist = cfg.Storage.PersistChecklist
		j.requireChecklist = cfg.Journal.RequireChecklist
	}
}

// Open loads the journal from storage. Corrupt trade data is set aside under
// "<key>.corrupt-<unix>" and the journal starts empty. A backing document
// that cannot be read at all is moved aside by the storage itself.
func Open(ctx context.Context, storage store.Storage, opts ...Option) (*Journal, error) {
	j := &Journal{
		storage:          storage,
		logger:           zerolog.Nop(),
		ids:              id.NewGenerator(),
		now:              time.Now,
		requireChecklist: true,
		persistChecklist: true,
		tradesKey:        config.DefaultTradesKey,
		checklistKey:     config.DefaultChecklistKey,
		mode:             ModeChecklist,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.logger = logging.WithOperation(j.logger, "journal")
	j.trades = store.NewTradeRepository(storage, j.tradesKey)
	j.checklists = store.NewChecklistRepository(storage, j.checklistKey)

	trades, err := j.trades.Load(ctx)
	if apperrors.Is(err, apperrors.ErrCorruptData) {
		if err := j.recoverTrades(ctx, err); err != nil {
			return nil, err
		}
		trades = []models.Trade{}
	} else if err != nil {
		return nil, apperrors.Wrap(err, "failed to load trades")
	}
	j.collection = trades

	if j.persistChecklist {
		c, err := j.checklists.Load(ctx)
		if apperrors.Is(err, apperrors.ErrCorruptData) {
			j.logger.Warn().Err(err).Msg("Discarding unreadable checklist")
			c = models.Checklist{}
		} else if err != nil {
			return nil, apperrors.Wrap(err, "failed to load checklist")
		}
		j.checklist = c
	}

	j.metrics.ObserveTrades(j.collection)
	j.metrics.ObserveChecklist(j.checklist)

	j.logger.Debug().
		Int("trades", len(j.collection)).
		Int("checklist_completed", j.checklist.CompletedCount()).
		Msg("Journal opened")
	return j, nil
}

func (j *Journal) recoverTrades(ctx context.Context, cause error) error {
	raw, _, err := j.trades.Raw(ctx)
	if apperrors.Is(err, apperrors.ErrCorruptData) {
		return j.recoverStorage(ctx, cause)
	}
	if err != nil {
		return apperrors.Wrap(err, "failed to read corrupt trades")
	}

	backupKey := fmt.Sprintf("%s.corrupt-%d", j.tradesKey, j.now().Unix())
	if err := j.storage.Set(ctx, backupKey, raw); err != nil {
		return apperrors.Wrap(err, "failed to preserve corrupt trades")
	}
	if err := j.trades.Save(ctx, nil); err != nil {
		return apperrors.Wrap(err, "failed to reset trades")
	}

	j.logger.Warn().
		Err(cause).
		Str("backup_key", backupKey).
		Msg("Stored trades were unreadable; starting with an empty journal")
	if err := j.audit.LogStoreRecovered(ctx, j.tradesKey, backupKey, cause.Error()); err != nil {
		j.logger.Warn().Err(err).Msg("Failed to write audit event")
	}
	return nil
}

// recoverStorage handles a backing document that cannot be read at all: the
// storage moves it aside and the journal starts from an empty one.
func (j *Journal) recoverStorage(ctx context.Context, cause error) error {
	r, ok := j.storage.(store.Recoverer)
	if !ok {
		return apperrors.Wrap(cause, "stored data is unreadable")
	}
	backup, err := r.Recover(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to set aside unreadable storage")
	}

	j.logger.Warn().
		Err(cause).
		Str("backup", backup).
		Msg("Journal storage was unreadable; starting with an empty journal")
	j.auditErr(j.audit.LogStoreRecovered(ctx, j.tradesKey, backup, cause.Error()))
	return nil
}

// Trades returns a copy of the collection, newest first.
func (j *Journal) Trades() []models.Trade {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.Trade, len(j.collection))
	copy(out, j.collection)
	return out
}

// Trade returns the trade with the given id.
func (j *Journal) Trade(tradeID string) (models.Trade, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, t := range j.collection {
		if t.ID == tradeID {
			return t, nil
		}
	}
	return models.Trade{}, fmt.Errorf("%w: %s", apperrors.ErrTradeNotFound, tradeID)
}

// Checklist returns the current checklist.
func (j *Journal) Checklist() models.Checklist {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.checklist
}

// CanEnterTrade reports whether every checklist rule is checked.
func (j *Journal) CanEnterTrade() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.checklist.AllCompleted()
}

// ToggleRule sets rule i (zero-based) to checked.
func (j *Journal) ToggleRule(ctx context.Context, i int, checked bool) (models.Checklist, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	next, err := j.checklist.Toggle(i, checked)
	if err != nil {
		return j.checklist, err
	}
	if err := j.storeChecklist(ctx, next); err != nil {
		return j.checklist, err
	}

	logging.LogChecklist(j.logger, next.CompletedCount(), models.RuleCount)
	j.auditErr(j.audit.LogChecklistUpdated(ctx, i+1, checked, next.CompletedCount()))
	return next, nil
}

// SetChecklist replaces the whole checklist.
func (j *Journal) SetChecklist(ctx context.Context, c models.Checklist) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.storeChecklist(ctx, c); err != nil {
		return err
	}
	logging.LogChecklist(j.logger, c.CompletedCount(), models.RuleCount)
	return nil
}

// ResetChecklist unchecks every rule.
func (j *Journal) ResetChecklist(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.storeChecklist(ctx, j.checklist.Reset()); err != nil {
		return err
	}
	j.auditErr(j.audit.LogChecklistReset(ctx, "manual"))
	return nil
}

// storeChecklist persists c (when enabled) and then adopts it. Callers hold mu.
func (j *Journal) storeChecklist(ctx context.Context, c models.Checklist) error {
	if j.persistChecklist {
		if err := j.checklists.Save(ctx, c); err != nil {
			return err
		}
	}
	j.checklist = c
	if j.mode == ModeEntry && j.requireChecklist && !c.AllCompleted() {
		j.mode = ModeChecklist
	}
	j.metrics.ObserveChecklist(c)
	return nil
}

// AddTrade records a trade: it is stamped with a fresh id, today's date and
// the current checklist, prepended to the collection and persisted. The
// checklist is then reset and the view returns to the checklist. If either
// write fails no trade is recorded.
func (j *Journal) AddTrade(ctx context.Context, in models.TradeInput) (models.Trade, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.requireChecklist && !j.checklist.AllCompleted() {
		j.metrics.EntryLocked()
		j.auditErr(j.audit.LogEntryLocked(ctx, j.checklist.CompletedCount()))
		return models.Trade{}, apperrors.ErrEntryLocked
	}

	tradeID, err := j.ids.New()
	if err != nil {
		return models.Trade{}, apperrors.Wrap(err, "failed to generate trade id")
	}
	trade := models.NewTrade(tradeID, j.now().Format(models.DateLayout), in, j.checklist.Snapshot())

	next := make([]models.Trade, 0, len(j.collection)+1)
	next = append(next, trade)
	next = append(next, j.collection...)

	// The stored gate is closed before the trade is written, so no failure
	// can leave a recorded trade behind an open checklist.
	reset := j.checklist.Reset()
	if j.persistChecklist {
		if err := j.checklists.Save(ctx, reset); err != nil {
			return models.Trade{}, apperrors.Wrap(err, "failed to reset checklist")
		}
	}
	if err := j.trades.Save(ctx, next); err != nil {
		if j.persistChecklist {
			if rerr := j.checklists.Save(ctx, j.checklist); rerr != nil {
				j.logger.Warn().Err(rerr).Msg("Failed to restore checklist; rules must be checked again")
				j.checklist = reset
				j.metrics.ObserveChecklist(reset)
			}
		}
		return models.Trade{}, err
	}
	j.collection = next
	j.checklist = reset
	j.mode = ModeChecklist

	logging.LogTradeRecorded(logging.WithTradeID(j.logger, trade.ID), trade.ID, string(trade.Direction), trade.PnL, trade.RiskAmount, trade.RulesFollowedCount())
	j.auditErr(j.audit.LogTradeRecorded(ctx, trade.ID, string(trade.Direction), trade.PnL, trade.RiskAmount, trade.RulesFollowedCount()))
	j.auditErr(j.audit.LogChecklistReset(ctx, "trade recorded"))
	j.metrics.TradeRecorded()
	j.metrics.ObserveTrades(j.collection)
	j.metrics.ObserveChecklist(j.checklist)
	return trade, nil
}

// Mode returns the active view.
func (j *Journal) Mode() Mode {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.mode
}

// SelectMode switches the active view. Entry is refused while the
// checklist is incomplete.
func (j *Journal) SelectMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if m == ModeEntry && j.requireChecklist && !j.checklist.AllCompleted() {
		return apperrors.ErrEntryLocked
	}
	j.mode = m
	return nil
}

// Export writes the collection as a dated workbook into dir.
func (j *Journal) Export(ctx context.Context, dir string) (export.Result, error) {
	trades := j.Trades()

	start := time.Now()
	res, err := export.ToFile(ctx, dir, trades, j.now())
	if err != nil {
		return res, err
	}

	logging.LogExport(j.logger, res.Path, res.Rows, res.Checksum, time.Since(start))
	j.auditErr(j.audit.LogExportCreated(ctx, res.Path, res.Rows, res.Checksum))
	j.metrics.ExportWritten()
	return res, nil
}

// RecordRejection notes a rejected form submission.
func (j *Journal) RecordRejection(ctx context.Context, err error) {
	reason, field := rejectionReason(err)
	j.metrics.ValidationFailed(reason)
	j.auditErr(j.audit.LogInputValidation(ctx, field, err.Error()))
}

func rejectionReason(err error) (reason, field string) {
	var ve *apperrors.ValidationError
	if apperrors.As(err, &ve) {
		field = ve.Field
	}
	var mf *apperrors.MissingFieldsError
	if apperrors.As(err, &mf) {
		field = strings.Join(mf.Fields, ",")
	}

	switch {
	case apperrors.Is(err, apperrors.ErrMissingInformation):
		reason = "missing_information"
	case apperrors.Is(err, apperrors.ErrInvalidNumber):
		reason = "invalid_number"
	case apperrors.Is(err, apperrors.ErrInvalidValue):
		reason = "invalid_value"
	default:
		reason = "other"
	}
	return reason, field
}

func (j *Journal) auditErr(err error) {
	if err != nil {
		j.logger.Warn().Err(err).Msg("Failed to write audit event")
	}
}
