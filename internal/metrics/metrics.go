// Package metrics collects Prometheus counters for a single generation run.
//
// A run is a short-lived batch process, so nothing is served over HTTP. The
// collected values are written once, at the end of the run, in the
// node-exporter textfile format when output.metrics_textfile is set.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

const namespace = "possynth"

// RunMetrics holds the collectors of one run on a private registry.
// It satisfies synth.Observer.
type RunMetrics struct {
	registry *prometheus.Registry

	requested   prometheus.Counter
	declined    prometheus.Counter
	empty       prometheus.Counter
	retained    prometheus.Counter
	lines       prometheus.Counter
	amount      prometheus.Counter
	rerolls     prometheus.Counter
	skews       *prometheus.CounterVec
	marketDraws *prometheus.CounterVec
	chunks      *prometheus.CounterVec
	rowsWritten *prometheus.CounterVec
	duration    *prometheus.GaugeVec
	runInfo     *prometheus.GaugeVec
	basketLines prometheus.Histogram
}

// New creates and registers every collector.
func New() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		requested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "slots_requested_total",
			Help: "Transaction slots drawn.",
		}),
		declined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "slots_declined_total",
			Help: "Slots rejected by a decline rule.",
		}),
		empty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "baskets_empty_total",
			Help: "Baskets discarded because they had no quantity.",
		}),
		retained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "transactions_retained_total",
			Help: "Transactions that received an id.",
		}),
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "lines_total",
			Help: "Line items emitted.",
		}),
		amount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sales_amount_total",
			Help: "Sum of retained transaction totals.",
		}),
		rerolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "dead_stock_rerolls_total",
			Help: "Dead-stock products replaced away from their home market.",
		}),
		skews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "skew_applied_total",
			Help: "Lines whose product came from a skew rule.",
		}, []string{"rule"}),
		marketDraws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "market_draws_total",
			Help: "Slots drawn per market.",
		}, []string{"market"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "chunks_written_total",
			Help: "Committed insert chunks.",
		}, []string{"table"}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_written_total",
			Help: "Rows committed to the store.",
		}, []string{"table"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "phase_duration_seconds",
			Help: "Wall time of each run phase.",
		}, []string{"phase"}),
		runInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "run_info",
			Help: "Constant 1, labelled with the run id and seed.",
		}, []string{"run_id", "seed"}),
		basketLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "basket_lines",
			Help:    "Lines per retained transaction.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}

	m.registry.MustRegister(
		m.requested, m.declined, m.empty, m.retained, m.lines, m.amount, m.rerolls,
		m.skews, m.marketDraws, m.chunks, m.rowsWritten, m.duration, m.runInfo, m.basketLines,
	)
	return m
}

// Registry exposes the private registry.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// =============================================================================
// GENERATION EVENTS
// =============================================================================

func (m *RunMetrics) SlotDrawn(marketID int64) {
	m.requested.Inc()
	m.marketDraws.WithLabelValues(strconv.FormatInt(marketID, 10)).Inc()
}

func (m *RunMetrics) SlotDeclined(int64) { m.declined.Inc() }

func (m *RunMetrics) BasketEmpty(int64) { m.empty.Inc() }

func (m *RunMetrics) TransactionRetained(header types.TransactionHeader, lines int) {
	m.retained.Inc()
	m.lines.Add(float64(lines))
	m.basketLines.Observe(float64(lines))
	amount, _ := header.TotalAmount.Float64()
	m.amount.Add(amount)
}

func (m *RunMetrics) SkewApplied(rule string) { m.skews.WithLabelValues(rule).Inc() }

func (m *RunMetrics) DeadStockRerolled(int64) { m.rerolls.Inc() }

// =============================================================================
// RUN EVENTS
// =============================================================================

// ChunkWritten records one committed chunk. It matches store.Writer.OnChunk.
func (m *RunMetrics) ChunkWritten(table string, rows int) {
	m.chunks.WithLabelValues(table).Inc()
	m.rowsWritten.WithLabelValues(table).Add(float64(rows))
}

// ObservePhase records how long a phase of the run took.
func (m *RunMetrics) ObservePhase(phase string, d time.Duration) {
	m.duration.WithLabelValues(phase).Set(d.Seconds())
}

// SetRunInfo labels the run.
func (m *RunMetrics) SetRunInfo(runID string, seed uint64) {
	m.runInfo.WithLabelValues(runID, strconv.FormatUint(seed, 10)).Set(1)
}

// WriteTextfile writes every collected metric to path in the textfile
// exposition format.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
