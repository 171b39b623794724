package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// warning engine.
type Metrics struct {
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram
	EngineRunning prometheus.Gauge

	// Feed polling metrics.
	FeedWarnings *prometheus.GaugeVec   // labels: feed
	FeedErrors   *prometheus.CounterVec // labels: feed

	// Matching and delivery metrics.
	DeliveriesTotal     prometheus.Counter
	DeliveryErrorsTotal prometheus.Counter
	DedupSkipsTotal     prometheus.Counter
	RecipientErrors     prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.EngineRunning,
		m.FeedWarnings,
		m.FeedErrors,
		m.DeliveriesTotal,
		m.DeliveryErrorsTotal,
		m.DedupSkipsTotal,
		m.RecipientErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to
// avoid "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_engine",
			Name:      "cycles_total",
			Help:      "Total completed poll-match-deliver cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "warning_engine",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete poll-match-deliver cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		}),
		EngineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "warning_engine",
			Name:      "running",
			Help:      "1 while the cycle scheduler is active, 0 after shutdown.",
		}),
		FeedWarnings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "warning_engine",
			Name:      "feed_warnings",
			Help:      "Active warnings reported by each feed in the last cycle.",
		}, []string{"feed"}),
		FeedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warning_engine",
			Name:      "feed_errors_total",
			Help:      "Poll failures per feed.",
		}, []string{"feed"}),
		DeliveriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_engine",
			Name:      "deliveries_total",
			Help:      "Successful warning deliveries.",
		}),
		DeliveryErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_engine",
			Name:      "delivery_errors_total",
			Help:      "Transport failures; the affected pairs retry next cycle.",
		}),
		DedupSkipsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_engine",
			Name:      "dedup_skips_total",
			Help:      "Pairs skipped because the warning was already delivered.",
		}),
		RecipientErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_engine",
			Name:      "recipient_errors_total",
			Help:      "Recipients whose matching aborted on a persistence failure.",
		}),
	}
}
