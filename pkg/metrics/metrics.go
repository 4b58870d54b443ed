package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ResourcesTotal tracks how many resources of each kind are declared in
	// the active policy.
	ResourcesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warden_resources_total",
			Help: "Total number of declared resources by kind",
		},
		[]string{"kind"},
	)

	// ActionsTotal tracks fixup actions by resource kind and outcome.
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_actions_total",
			Help: "Total number of fixup actions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// DifferentResourcesTotal tracks how many resources had at least one
	// differing attribute on the most recent stat pass.
	DifferentResourcesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warden_different_resources_total",
			Help: "Resources with at least one different attribute, by kind",
		},
		[]string{"kind"},
	)

	// ReconciliationDuration times a full reconcile run.
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "warden_reconciliation_duration_seconds",
			Help:    "Time taken for a reconciliation run in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ReconciliationRunsTotal counts completed reconcile runs, by whether
	// any action in the run failed.
	ReconciliationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_reconciliation_runs_total",
			Help: "Total number of reconciliation runs, by result",
		},
		[]string{"result"},
	)

	// StatDuration times the observed-state read for a single resource.
	StatDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warden_stat_duration_seconds",
			Help:    "Time taken to stat a single resource, by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// NotificationsTotal counts notify() calls delivered to dependents.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_notifications_total",
			Help: "Total number of dependency notifications delivered, by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(ResourcesTotal)
	prometheus.MustRegister(ActionsTotal)
	prometheus.MustRegister(DifferentResourcesTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationRunsTotal)
	prometheus.MustRegister(StatDuration)
	prometheus.MustRegister(NotificationsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
