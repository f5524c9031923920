package metrics

import (
	"time"

	"github.com/fastprodman/ledgerengine/internal/services/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

var _ ledger.Sink = (*LedgerMetrics)(nil)

// LedgerMetrics exports run and rejection counters. It doubles as a
// diagnostics sink for the engine.
type LedgerMetrics struct {
	rejected  *prometheus.CounterVec
	applied   *prometheus.CounterVec
	malformed prometheus.Counter
	runs      *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewLedgerMetrics registers the ledger metrics on reg. A nil registerer
// yields a no-op value.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}

	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_rejected_total",
		Help: "Transactions dropped without effect, by reason.",
	}, []string{"reason"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_applied_total",
		Help: "Transactions applied to an account, by type.",
	}, []string{"type"})
	malformed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_rows_malformed_total",
		Help: "Input rows that could not be decoded.",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_runs_total",
		Help: "Processing runs by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_run_duration_seconds",
		Help:    "Wall time of a processing run.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(rejected, applied, malformed, runs, duration)

	return &LedgerMetrics{
		rejected:  rejected,
		applied:   applied,
		malformed: malformed,
		runs:      runs,
		duration:  duration,
	}
}

// Record implements ledger.Sink.
func (m *LedgerMetrics) Record(d ledger.Diagnostic) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(string(d.Reason))).Inc()
}

// IncMalformed counts a row rejected before it reached the engine.
func (m *LedgerMetrics) IncMalformed() {
	if m == nil || m.malformed == nil {
		return
	}
	m.malformed.Inc()
}

// ObserveRun records the end of a run. Applied counts come from the
// engine's stats so the hot path only pays for rejections.
func (m *LedgerMetrics) ObserveRun(stats ledger.Stats, elapsed time.Duration, runErr error) {
	if m == nil || m.runs == nil {
		return
	}

	for kind, n := range stats.Applied {
		m.applied.WithLabelValues(normalizeLabel(string(kind))).Add(float64(n))
	}

	result := "ok"
	if runErr != nil {
		result = "failed"
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
