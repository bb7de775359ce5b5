package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a
// disaggregation run.
type Metrics struct {
	BlocksProcessed     prometheus.Counter
	ResultsWritten      prometheus.Counter
	ZeroBlocks          prometheus.Counter
	FallbackResolutions prometheus.Counter
	NoBasisSkipped      prometheus.Counter
	SumViolations       prometheus.Counter
	TriplesRejected     prometheus.Counter
	RunActive           prometheus.Gauge
	TableKeys           prometheus.Gauge
	TableTriples        prometheus.Gauge

	TableBuildDuration prometheus.Histogram
	RunDuration        prometheus.Histogram
}

// NewMetrics creates and registers all run metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		BlocksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_disagg",
			Name:      "blocks_processed_total",
			Help:      "Future 3-hour blocks read from the store.",
		}),
		ResultsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_disagg",
			Name:      "results_written_total",
			Help:      "Hourly result records written to the store.",
		}),
		ZeroBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_disagg",
			Name:      "zero_blocks_total",
			Help:      "Blocks with a zero total, emitted as three zero hours.",
		}),
		FallbackResolutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_disagg",
			Name:      "fallback_resolutions_total",
			Help:      "Blocks resolved via the coarse month-only key.",
		}),
		NoBasisSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_disagg",
			Name:      "no_basis_skipped_total",
			Help:      "Blocks skipped for lack of climatological basis at any granularity.",
		}),
		SumViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_disagg",
			Name:      "sum_violations_total",
			Help:      "Blocks whose selected triple failed to reproduce the block total.",
		}),
		TriplesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_disagg",
			Name:      "triples_rejected_total",
			Help:      "Malformed weight triples rejected at table build time.",
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_disagg",
			Name:      "run_active",
			Help:      "1 while a disaggregation run is in progress.",
		}),
		TableKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_disagg",
			Name:      "weight_table_keys",
			Help:      "Distinct weight keys with at least one candidate year.",
		}),
		TableTriples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_disagg",
			Name:      "weight_table_triples",
			Help:      "Candidate weight triples stored across all keys.",
		}),
		TableBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "precip_disagg",
			Name:      "table_build_duration_seconds",
			Help:      "Duration of aggregation plus weight table construction.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "precip_disagg",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete disaggregation run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
	}

	prometheus.MustRegister(
		m.BlocksProcessed,
		m.ResultsWritten,
		m.ZeroBlocks,
		m.FallbackResolutions,
		m.NoBasisSkipped,
		m.SumViolations,
		m.TriplesRejected,
		m.RunActive,
		m.TableKeys,
		m.TableTriples,
		m.TableBuildDuration,
		m.RunDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		BlocksProcessed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_disagg", Name: "blocks_processed_total"}),
		ResultsWritten:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_disagg", Name: "results_written_total"}),
		ZeroBlocks:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_disagg", Name: "zero_blocks_total"}),
		FallbackResolutions: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_disagg", Name: "fallback_resolutions_total"}),
		NoBasisSkipped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_disagg", Name: "no_basis_skipped_total"}),
		SumViolations:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_disagg", Name: "sum_violations_total"}),
		TriplesRejected:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "precip_disagg", Name: "triples_rejected_total"}),
		RunActive:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "precip_disagg", Name: "run_active"}),
		TableKeys:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "precip_disagg", Name: "weight_table_keys"}),
		TableTriples:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "precip_disagg", Name: "weight_table_triples"}),
		TableBuildDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "precip_disagg", Name: "table_build_duration_seconds"}),
		RunDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "precip_disagg", Name: "run_duration_seconds"}),
	}
}
