package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
	"trading-journal/internal/store"
)

type harness struct {
	t         *testing.T
	configDir string
	storage   store.Storage
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:         t,
		configDir: t.TempDir(),
		storage:   store.NewMemoryStorage(),
	}
}

// run executes one CLI invocation against the shared storage, the way
// separate processes would share a data file.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	app := &App{Storage: h.storage}
	cmd := newRootCmd(app)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", h.configDir, "--no-color"}, args...))

	err := cmd.ExecuteContext(context.Background())
	require.NoError(h.t, app.teardown())
	return out.String(), err
}

func (h *harness) completeChecklist() {
	h.t.Helper()
	_, err := h.run("checklist", "check", "1", "2", "3", "4", "5")
	require.NoError(h.t, err)
}

func (h *harness) addTrade(pnl, risk string) (string, error) {
	return h.run("trade", "add",
		"--context", "Trend day",
		"--entry", "Opening range breakout",
		"--bias", "bullish",
		"--direction", "long",
		"--pnl="+pnl,
		"--risk="+risk,
		"--exit", "Target hit",
	)
}

func TestVersionJSON(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("version", "--json")
	require.NoError(t, err)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v["version"])
}

func TestFirstRunWritesConfigTemplate(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("config", "path")
	require.NoError(t, err)
	assert.Equal(t, h.configDir, strings.TrimSpace(out))
	assert.FileExists(t, filepath.Join(h.configDir, "config.toml"))
}

func TestChecklistFlow(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("checklist")
	require.NoError(t, err)
	assert.Contains(t, out, "1. High volume?")
	assert.Contains(t, out, "Check this if you're NOT trading due to FOMO")
	assert.Contains(t, out, "0/5 completed")

	out, err = h.run("checklist", "check", "1", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "2/5 completed")
	assert.NotContains(t, out, "All rules checked")

	out, err = h.run("checklist", "check", "2", "4", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "5/5 completed")
	assert.Contains(t, out, "All rules checked")

	out, err = h.run("checklist", "uncheck", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "4/5 completed")

	out, err = h.run("checklist", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "0/5 completed")
}

func TestChecklistRejectsBadRuleNumber(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("checklist", "check", "6")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidValue))
}

func TestTradeAddLockedUntilChecklistComplete(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("checklist", "check", "1", "2")
	require.NoError(t, err)

	out, err := h.addTrade("150", "50")
	assert.ErrorIs(t, err, apperrors.ErrEntryLocked)
	assert.Contains(t, out, "LOCKED")
	assert.Contains(t, out, "2/5 completed")
}

func TestTradeAddRecordsAndResetsChecklist(t *testing.T) {
	h := newHarness(t)
	h.completeChecklist()

	out, err := h.addTrade("150", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "Trade Recorded")
	assert.Contains(t, out, "+$150.00")
	assert.Contains(t, out, "1:3.00")
	assert.Contains(t, out, "Rules Followed: 5/5")

	out, err = h.run("checklist")
	require.NoError(t, err)
	assert.Contains(t, out, "0/5 completed")
}

func TestTradeAddZeroRisk(t *testing.T) {
	h := newHarness(t)
	h.completeChecklist()

	out, err := h.addTrade("-40", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "-$40.00")
	assert.Contains(t, out, "N/A")
}

func TestTradeAddMissingInformation(t *testing.T) {
	h := newHarness(t)
	h.completeChecklist()

	out, err := h.run("trade", "add", "--context", "Trend day", "--pnl", "10")
	assert.True(t, apperrors.Is(err, apperrors.ErrMissingInformation))
	assert.Contains(t, out, "Missing Information")

	// nothing recorded and the checklist is untouched
	out, err = h.run("checklist")
	require.NoError(t, err)
	assert.Contains(t, out, "5/5 completed")
}

func TestTradeAddInvalidNumber(t *testing.T) {
	h := newHarness(t)
	h.completeChecklist()

	out, err := h.addTrade("lots", "50")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidNumber))
	assert.Contains(t, out, "Invalid Number")
}

func TestHistoryEmpty(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 0")
	assert.Contains(t, out, "No trades recorded yet")

	out, err = h.run("stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No trades recorded yet")
}

func TestHistoryWithTrades(t *testing.T) {
	h := newHarness(t)
	h.completeChecklist()
	_, err := h.addTrade("100", "50")
	require.NoError(t, err)
	h.completeChecklist()
	_, err = h.addTrade("-50", "20")
	require.NoError(t, err)

	out, err := h.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "Winning: 1")
	assert.Contains(t, out, "Losing: 1")
	assert.Contains(t, out, "+$50.00")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "$100.00")
	assert.Contains(t, out, "-$50.00")
	assert.Contains(t, out, "1:2.00")
	assert.Contains(t, out, "1:2.50")

	// newest first
	assert.Less(t, strings.Index(out, "1:2.50"), strings.Index(out, "1:2.00"))
}

func TestHistoryJSONAndShow(t *testing.T) {
	h := newHarness(t)
	h.completeChecklist()
	_, err := h.addTrade("150", "50")
	require.NoError(t, err)

	out, err := h.run("history", "--json")
	require.NoError(t, err)

	var view struct {
		Counters struct {
			Total int `json:"total"`
		} `json:"counters"`
		Stats struct {
			TotalPnL float64 `json:"totalPnl"`
		} `json:"stats"`
		Trades []models.Trade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Len(t, view.Trades, 1)
	assert.Equal(t, 1, view.Counters.Total)
	assert.Equal(t, 150.0, view.Stats.TotalPnL)

	id := view.Trades[0].ID
	out, err = h.run("history", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Trade "+id)
	assert.Contains(t, out, "Opening range breakout")

	_, err = h.run("history", "show", "nope")
	assert.ErrorIs(t, err, apperrors.ErrTradeNotFound)
}

func TestStatsYAML(t *testing.T) {
	h := newHarness(t)
	h.completeChecklist()
	_, err := h.addTrade("150", "50")
	require.NoError(t, err)

	out, err := h.run("stats", "--yaml")
	require.NoError(t, err)

	var view map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	assert.EqualValues(t, 1, view["counters"]["total"])
	assert.EqualValues(t, 100, view["stats"]["win_rate"])
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(t.TempDir(), "exports")

	out, err := h.run("export", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No data to export")

	h.completeChecklist()
	_, err = h.addTrade("150", "50")
	require.NoError(t, err)

	out, err = h.run("export", "--dir", dir, "--json")
	require.NoError(t, err)

	var res struct {
		Path     string `json:"path"`
		Rows     int    `json:"rows"`
		Checksum string `json:"checksum"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Rows)
	assert.Len(t, res.Checksum, 16)
	_, err = os.Stat(res.Path)
	assert.NoError(t, err)
}

func TestAuditTrailWritten(t *testing.T) {
	h := newHarness(t)
	h.completeChecklist()
	_, err := h.addTrade("150", "50")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(h.configDir, "audit", "audit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "TRADE_RECORDED")
	assert.Contains(t, string(data), "CHECKLIST_UPDATED")
}

func TestFileBackendAcrossInvocations(t *testing.T) {
	configDir := t.TempDir()
	data := filepath.Join(t.TempDir(), "journal.json")

	run := func(args ...string) (string, error) {
		app := &App{}
		cmd := newRootCmd(app)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(append([]string{"--config", configDir, "--no-color", "--data", data}, args...))
		err := cmd.ExecuteContext(context.Background())
		require.NoError(t, app.teardown())
		return out.String(), err
	}

	_, err := run("checklist", "check", "1", "2", "3", "4", "5")
	require.NoError(t, err)
	_, err = run("trade", "add", "--context", "c", "--entry", "e", "--bias", "Neutral",
		"--direction", "Short", "--pnl=-40", "--risk=0", "--exit", "x")
	require.NoError(t, err)

	out, err := run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 1")
	assert.FileExists(t, data)
}

func TestCommandsAndQuickstart(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("commands")
	require.NoError(t, err)
	assert.Contains(t, out, "Checklist")
	assert.Contains(t, out, "trade add")

	out, err = h.run("quickstart")
	require.NoError(t, err)
	assert.Contains(t, out, "1. High volume?")
	assert.Contains(t, out, "journal history")
}
