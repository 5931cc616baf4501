package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors updated by the engine. A nil
// *Metrics records nothing.
type Metrics struct {
	conversions    *prometheus.CounterVec
	tierCandidates *prometheus.CounterVec
	records        prometheus.Histogram
	duration       *prometheus.HistogramVec
}

// NewMetrics registers the engine collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		conversions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statement_ledger",
			Name:      "conversions_total",
			Help:      "Documents converted, by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		tierCandidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statement_ledger",
			Name:      "tier_candidates_total",
			Help:      "Candidate records produced, by heuristic tier or table path.",
		}, []string{"tier"}),
		records: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "statement_ledger",
			Name:      "records_per_document",
			Help:      "Transactions kept per document.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "statement_ledger",
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of a conversion, by strategy.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),
	}
}

func (m *Metrics) observeConversion(strategy Strategy, outcome string, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(string(strategy), outcome).Inc()
	m.duration.WithLabelValues(string(strategy)).Observe(elapsed.Seconds())
	if outcome == string(OutcomeTransactions) {
		m.records.Observe(float64(records))
	}
}

func (m *Metrics) observeCandidates(tier string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.tierCandidates.WithLabelValues(tier).Add(float64(n))
}
