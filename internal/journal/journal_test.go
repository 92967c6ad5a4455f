package journal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-journal/internal/audit"
	"trading-journal/internal/config"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/id"
	"trading-journal/internal/models"
	"trading-journal/internal/store"
)

var fixedNow = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// flakyStorage fails Set once armed, for every key or only failKey.
type flakyStorage struct {
	store.Storage
	fail    bool
	failKey string
}

func (f *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.fail && (f.failKey == "" || f.failKey == key) {
		return apperrors.NewStorageError("set", key, errors.New("quota exceeded"))
	}
	return f.Storage.Set(ctx, key, value)
}

func openJournal(t *testing.T, s store.Storage, opts ...Option) *Journal {
	t.Helper()
	base := []Option{
		WithClock(clock),
		WithIDGenerator(id.NewGeneratorWithSource(bytes.NewReader(make([]byte, 1<<16)), clock)),
	}
	j, err := Open(context.Background(), s, append(base, opts...)...)
	require.NoError(t, err)
	return j
}

func completeChecklist(t *testing.T, j *Journal) {
	t.Helper()
	for i := 0; i < models.RuleCount; i++ {
		_, err := j.ToggleRule(context.Background(), i, true)
		require.NoError(t, err)
	}
}

func input(pnl, risk float64) models.TradeInput {
	return models.TradeInput{
		MarketContext: "trend day",
		Bias:          models.BiasBullish,
		Direction:     models.DirectionLong,
		PnL:           pnl,
		RiskAmount:    risk,
		EntryReason:   "breakout",
		ExitReason:    "target",
	}
}

func TestOpenEmpty(t *testing.T) {
	j := openJournal(t, store.NewMemoryStorage())
	assert.Empty(t, j.Trades())
	assert.NotNil(t, j.Trades())
	assert.False(t, j.CanEnterTrade())
	assert.Equal(t, ModeChecklist, j.Mode())
}

func TestAddTradeRequiresChecklist(t *testing.T) {
	j := openJournal(t, store.NewMemoryStorage())

	_, err := j.AddTrade(context.Background(), input(150, 50))
	assert.ErrorIs(t, err, apperrors.ErrEntryLocked)
	assert.Empty(t, j.Trades())
}

func TestAddTradeWithoutGate(t *testing.T) {
	j := openJournal(t, store.NewMemoryStorage(), WithRequireChecklist(false))

	_, err := j.ToggleRule(context.Background(), 1, true)
	require.NoError(t, err)

	tr, err := j.AddTrade(context.Background(), input(10, 5))
	require.NoError(t, err)
	assert.Equal(t, models.RulesFollowed{false, true, false, false, false}, tr.RulesFollowed)
}

func TestAddTradeStampsAndPersists(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStorage()
	j := openJournal(t, s)
	completeChecklist(t, j)
	require.NoError(t, j.SelectMode(ModeEntry))

	tr, err := j.AddTrade(ctx, input(150, 50))
	require.NoError(t, err)

	_, err = ulid.Parse(tr.ID)
	assert.NoError(t, err)
	assert.Equal(t, "2026-10-19", tr.Date)
	assert.Equal(t, 5, tr.RulesFollowedCount())
	assert.Equal(t, ModeChecklist, j.Mode())
	assert.Equal(t, 0, j.Checklist().CompletedCount())

	reopened := openJournal(t, s)
	assert.Equal(t, []models.Trade{tr}, reopened.Trades())
	assert.Equal(t, 0, reopened.Checklist().CompletedCount())
}

func TestAddTradeNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, store.NewMemoryStorage())

	var ids []string
	for i := 0; i < 3; i++ {
		completeChecklist(t, j)
		tr, err := j.AddTrade(ctx, input(float64(i), 1))
		require.NoError(t, err)
		ids = append(ids, tr.ID)
	}

	trades := j.Trades()
	require.Len(t, trades, 3)
	assert.Equal(t, ids[2], trades[0].ID)
	assert.Equal(t, ids[0], trades[2].ID)
}

func TestAddTradeStorageFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s := &flakyStorage{Storage: store.NewMemoryStorage()}
	j := openJournal(t, s)
	completeChecklist(t, j)

	s.fail = true
	_, err := j.AddTrade(ctx, input(150, 50))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrStorage))

	assert.Empty(t, j.Trades())
	assert.True(t, j.CanEnterTrade(), "checklist is kept when nothing was recorded")
}

func TestAddTradeChecklistResetFailureRecordsNothing(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStorage()
	s := &flakyStorage{Storage: mem, failKey: config.DefaultChecklistKey}
	j := openJournal(t, s)
	completeChecklist(t, j)

	s.fail = true
	_, err := j.AddTrade(ctx, input(150, 50))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrStorage))
	assert.Empty(t, j.Trades())

	// a later process must not find a trade recorded behind an open gate
	reopened := openJournal(t, mem)
	assert.Empty(t, reopened.Trades())
}

func TestAddTradeTradeSaveFailureRestoresChecklist(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStorage()
	s := &flakyStorage{Storage: mem, failKey: config.DefaultTradesKey}
	j := openJournal(t, s)
	completeChecklist(t, j)

	s.fail = true
	_, err := j.AddTrade(ctx, input(150, 50))
	require.Error(t, err)
	assert.Empty(t, j.Trades())
	assert.True(t, j.CanEnterTrade())

	reopened := openJournal(t, mem)
	assert.Empty(t, reopened.Trades())
	assert.True(t, reopened.CanEnterTrade())
}

func TestAddTradeClosesStoredGate(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStorage()
	j := openJournal(t, mem)
	completeChecklist(t, j)

	_, err := j.AddTrade(ctx, input(150, 50))
	require.NoError(t, err)

	reopened := openJournal(t, mem)
	assert.False(t, reopened.CanEnterTrade())
	_, err = reopened.AddTrade(ctx, input(10, 5))
	assert.ErrorIs(t, err, apperrors.ErrEntryLocked)
	assert.Len(t, reopened.Trades(), 1)
}

func TestChecklistPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStorage()
	j := openJournal(t, s)

	_, err := j.ToggleRule(ctx, 0, true)
	require.NoError(t, err)
	_, err = j.ToggleRule(ctx, 4, true)
	require.NoError(t, err)

	reopened := openJournal(t, s)
	assert.Equal(t, models.RulesFollowed{true, false, false, false, true}, reopened.Checklist().Snapshot())
}

func TestChecklistNotPersistedWhenDisabled(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStorage()
	j := openJournal(t, s, WithPersistChecklist(false))

	_, err := j.ToggleRule(ctx, 0, true)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, config.DefaultChecklistKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToggleRuleOutOfRange(t *testing.T) {
	j := openJournal(t, store.NewMemoryStorage())
	_, err := j.ToggleRule(context.Background(), models.RuleCount, true)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidValue))
}

func TestResetAndSetChecklist(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, store.NewMemoryStorage())

	require.NoError(t, j.SetChecklist(ctx, models.NewChecklist(models.RulesFollowed{true, true, true, true, true})))
	assert.True(t, j.CanEnterTrade())

	require.NoError(t, j.ResetChecklist(ctx))
	assert.False(t, j.CanEnterTrade())
}

func TestSelectMode(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, store.NewMemoryStorage())

	assert.ErrorIs(t, j.SelectMode(ModeEntry), apperrors.ErrEntryLocked)
	require.NoError(t, j.SelectMode(ModeHistory))
	assert.Equal(t, ModeHistory, j.Mode())

	completeChecklist(t, j)
	require.NoError(t, j.SelectMode(ModeEntry))
	assert.Equal(t, ModeEntry, j.Mode())

	// unchecking a rule while entering falls back to the checklist
	_, err := j.ToggleRule(ctx, 2, false)
	require.NoError(t, err)
	assert.Equal(t, ModeChecklist, j.Mode())

	assert.True(t, apperrors.Is(j.SelectMode("settings"), apperrors.ErrInvalidValue))
}

func TestTradeLookup(t *testing.T) {
	j := openJournal(t, store.NewMemoryStorage())
	completeChecklist(t, j)
	tr, err := j.AddTrade(context.Background(), input(-40, 0))
	require.NoError(t, err)

	got, err := j.Trade(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr, got)

	_, err = j.Trade("missing")
	assert.ErrorIs(t, err, apperrors.ErrTradeNotFound)
}

func TestOpenRecoversCorruptTrades(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStorage()
	require.NoError(t, s.Set(ctx, config.DefaultTradesKey, []byte("{broken")))

	var logs bytes.Buffer
	var auditBuf bytes.Buffer
	j := openJournal(t, s,
		WithLogger(zerolog.New(&logs)),
		WithAudit(audit.NewWithWriter(nopWriteCloser{&auditBuf})),
	)
	assert.Empty(t, j.Trades())

	backupKey := fmt.Sprintf("%s.corrupt-%d", config.DefaultTradesKey, fixedNow.Unix())
	raw, ok, err := s.Get(ctx, backupKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "{broken", string(raw))

	current, _, err := s.Get(ctx, config.DefaultTradesKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(current))

	assert.Contains(t, logs.String(), backupKey)
	assert.Contains(t, auditBuf.String(), "STORE_RECOVERED")
}

func TestOpenRecoversUnreadableFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

	fs, err := store.NewFileStorage(path)
	require.NoError(t, err)

	var logs bytes.Buffer
	var auditBuf bytes.Buffer
	j := openJournal(t, fs,
		WithLogger(zerolog.New(&logs)),
		WithAudit(audit.NewWithWriter(nopWriteCloser{&auditBuf})),
	)
	assert.Empty(t, j.Trades())
	assert.Contains(t, logs.String(), "unreadable")
	assert.Contains(t, auditBuf.String(), "STORE_RECOVERED")

	backups, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data))

	completeChecklist(t, j)
	tr, err := j.AddTrade(ctx, input(150, 50))
	require.NoError(t, err)

	reopened := openJournal(t, fs)
	assert.Equal(t, []models.Trade{tr}, reopened.Trades())
}

func TestOpenDiscardsCorruptChecklist(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStorage()
	require.NoError(t, s.Set(ctx, config.DefaultChecklistKey, []byte("[1,2]")))

	j := openJournal(t, s)
	assert.Equal(t, 0, j.Checklist().CompletedCount())
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, store.NewMemoryStorage())
	dir := t.TempDir()

	_, err := j.Export(ctx, dir)
	assert.ErrorIs(t, err, apperrors.ErrNoDataToExport)

	completeChecklist(t, j)
	_, err = j.AddTrade(ctx, input(150, 50))
	require.NoError(t, err)

	res, err := j.Export(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.True(t, strings.HasSuffix(res.Path, "trading-journal-2026-10-19.xlsx"))
	_, err = os.Stat(res.Path)
	assert.NoError(t, err)
}

func TestRejectionReason(t *testing.T) {
	reason, field := rejectionReason(&apperrors.MissingFieldsError{Fields: []string{"pnl", "bias"}})
	assert.Equal(t, "missing_information", reason)
	assert.Equal(t, "pnl,bias", field)

	reason, field = rejectionReason(apperrors.NewValidationError("riskAmount", "x", "bad", apperrors.ErrInvalidNumber))
	assert.Equal(t, "invalid_number", reason)
	assert.Equal(t, "riskAmount", field)
}

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func genInput() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-1e5, 1e5),
		gen.Float64Range(0, 1e4),
		gen.OneConstOf(models.DirectionLong, models.DirectionShort),
	).Map(func(v []interface{}) models.TradeInput {
		in := input(v[0].(float64), v[1].(float64))
		in.Direction = v[2].(models.Direction)
		return in
	})
}

// Property: recording a trade grows the collection by one, puts the new
// trade first, snapshots the checklist as it was and then resets it.
func TestProperty_AddTrade(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("add trade bookkeeping", prop.ForAll(
		func(existing int, flags []bool, in models.TradeInput) bool {
			ctx := context.Background()
			j := openJournal(t, store.NewMemoryStorage(), WithRequireChecklist(false))
			for i := 0; i < existing; i++ {
				if _, err := j.AddTrade(ctx, input(1, 1)); err != nil {
					return false
				}
			}

			var want models.RulesFollowed
			copy(want[:], flags)
			if err := j.SetChecklist(ctx, models.NewChecklist(want)); err != nil {
				return false
			}

			before := j.Trades()
			tr, err := j.AddTrade(ctx, in)
			if err != nil {
				return false
			}
			after := j.Trades()

			return len(after) == len(before)+1 &&
				after[0] == tr &&
				tr.RulesFollowed == want &&
				tr.PnL == in.PnL &&
				j.Checklist().CompletedCount() == 0
		},
		gen.IntRange(0, 5),
		gen.SliceOfN(models.RuleCount, gen.Bool()),
		genInput(),
	))

	properties.TestingRun(t)
}
