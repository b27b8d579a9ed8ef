package execution

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK           = "ok"
	outcomeFailed       = "failed"
	outcomeRejected     = "rejected"
	outcomeRoomNotFound = "room_not_found"
	outcomeAbandoned    = "abandoned"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeshare_execution_runs_total",
			Help: "Run requests handled by the execution bridge, by outcome.",
		},
		[]string{"outcome"},
	)
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codeshare_execution_duration_seconds",
			Help:    "Round trip time of calls to the execution service.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, runDuration)
}

func countRun(outcome string) {
	runsTotal.WithLabelValues(outcome).Inc()
}

func observeDuration(d time.Duration) {
	runDuration.Observe(d.Seconds())
}
