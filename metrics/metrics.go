// Package metrics exposes locklab's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// AcquireCounter tracks successful lock acquisitions.
	AcquireCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locklab_acquire_total",
		Help: "Total number of successful lock acquisitions",
	})
	// BusyCounter tracks acquisition attempts denied by contention.
	BusyCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locklab_busy_total",
		Help: "Total number of acquisition attempts that found the lock held",
	})
	// ReleaseCounter tracks lock releases that deleted the holder's entry.
	ReleaseCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locklab_release_total",
		Help: "Total number of lock releases",
	})
	// StaleReleaseCounter tracks releases that found the entry expired or
	// reassigned and therefore did nothing.
	StaleReleaseCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locklab_stale_release_total",
		Help: "Total number of no-op releases of expired or reassigned locks",
	})
	// HoldDuration observes how long locks were held before release.
	HoldDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "locklab_hold_duration_seconds",
		Help:    "Time between lock acquisition and release",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
	// ScenarioCounter tracks harness scenario runs by name.
	ScenarioCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locklab_scenario_runs_total",
		Help: "Total number of harness scenario runs",
	}, []string{"scenario"})
	// ViolationCounter tracks mutual-exclusion violations observed by the harness.
	ViolationCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locklab_violations_total",
		Help: "Total number of mutual-exclusion violations detected",
	})
)

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// RegisterLockMetrics registers the lock collectors on the provided registry.
func RegisterLockMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AcquireCounter, BusyCounter, ReleaseCounter, StaleReleaseCounter, HoldDuration)
}

// RegisterHarnessMetrics registers the harness collectors on the provided registry.
func RegisterHarnessMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ScenarioCounter, ViolationCounter)
}
