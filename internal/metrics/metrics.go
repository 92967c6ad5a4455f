// Package metrics exposes journal counters and gauges in Prometheus format.
// A CLI process is short-lived, so the registry is flushed to a node-exporter
// textfile rather than served over HTTP.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"trading-journal/internal/analytics"
	"trading-journal/internal/models"
)

// Metrics holds the journal collectors and the registry they belong to.
// A nil *Metrics ignores every call.
type Metrics struct {
	registry *prometheus.Registry

	tradesRecorded     prometheus.Counter
	validationFailures *prometheus.CounterVec
	exports            prometheus.Counter
	entryLocked        prometheus.Counter

	trades   prometheus.Gauge
	totalPnL prometheus.Gauge
	winRate  prometheus.Gauge
	checked  prometheus.Gauge
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tradesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_trades_recorded_total",
			Help: "Trades recorded by this process",
		}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_validation_failures_total",
			Help: "Rejected trade form submissions by reason",
		}, []string{"reason"}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_exports_total",
			Help: "Spreadsheet exports written",
		}),
		entryLocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_entry_locked_total",
			Help: "Trade entries refused because the checklist was incomplete",
		}),
		trades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journal_trades",
			Help: "Trades in the journal",
		}),
		totalPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journal_total_pnl",
			Help: "Sum of P&L across all trades",
		}),
		winRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journal_win_rate_percent",
			Help: "Winning trades as a percentage of all trades",
		}),
		checked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journal_checklist_completed",
			Help: "Checklist rules currently checked",
		}),
	}

	m.registry.MustRegister(
		m.tradesRecorded, m.validationFailures, m.exports, m.entryLocked,
		m.trades, m.totalPnL, m.winRate, m.checked,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) TradeRecorded() {
	if m == nil {
		return
	}
	m.tradesRecorded.Inc()
}

func (m *Metrics) ValidationFailed(reason string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ExportWritten() {
	if m == nil {
		return
	}
	m.exports.Inc()
}

func (m *Metrics) EntryLocked() {
	if m == nil {
		return
	}
	m.entryLocked.Inc()
}

// ObserveChecklist records the number of checked rules.
func (m *Metrics) ObserveChecklist(c models.Checklist) {
	if m == nil {
		return
	}
	m.checked.Set(float64(c.CompletedCount()))
}

// ObserveTrades refreshes the collection gauges.
func (m *Metrics) ObserveTrades(trades []models.Trade) {
	if m == nil {
		return
	}
	m.trades.Set(float64(len(trades)))
	stats, ok := analytics.Compute(trades)
	if !ok {
		m.totalPnL.Set(0)
		m.winRate.Set(0)
		return
	}
	m.totalPnL.Set(stats.TotalPnL)
	m.winRate.Set(stats.WinRate)
}

// WriteTextfile writes the registry to path in the text exposition format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
