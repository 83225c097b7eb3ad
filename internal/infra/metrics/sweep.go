package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sweepRunsTotal,
		sweepSitesTotal,
		sweepDurationSeconds,
	)
}

var (
	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hosting_sweep_runs_total",
			Help: "Billing sweep executions, by result.",
		},
		[]string{"result"}, // 'ok', 'error', 'skipped' (lock not acquired)
	)

	sweepSitesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hosting_sweep_sites_total",
			Help: "Sites settled by the billing sweep, by outcome.",
		},
		[]string{"outcome"}, // 'charged', 'paused', 'skipped', 'errored'
	)

	sweepDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hosting_sweep_duration_seconds",
			Help:    "Wall-clock duration of one billing sweep.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

func IncSweepRun(result string) {
	sweepRunsTotal.WithLabelValues(norm(result)).Inc()
}

func AddSweepSites(outcome string, n int) {
	sweepSitesTotal.WithLabelValues(norm(outcome)).Add(float64(n))
}

func ObserveSweepDuration(seconds float64) {
	sweepDurationSeconds.Observe(seconds)
}
