package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CapturedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_events_total",
			Help: "Total number of analytics calls captured, by event kind (count)",
		},
		[]string{"kind"},
	)

	DroppedRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "capture_dropped_requests_total",
			Help: "Requests to the analytics endpoint ignored by the tracker (non-POST or non-matching) (count)",
		},
	)

	VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_verdicts_total",
			Help: "Total number of validation verdicts (count)",
		},
		[]string{"status"},
	)

	ValidationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "validation_duration_ms",
			Help:    "Duration of one event-type validation in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"status"},
	)

	TrackedPages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "capture_tracked_pages",
			Help: "Number of pages currently feeding the shared captured log (count)",
		},
	)

	ArtifactWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_artifact_writes_total",
			Help: "Dump artifacts written (count)",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		CapturedEventsTotal,
		DroppedRequestsTotal,
		VerdictsTotal,
		ValidationDuration,
		TrackedPages,
		ArtifactWritesTotal,
	)
}

func ObserveValidationDuration(d time.Duration, status string) {
	ValidationDuration.WithLabelValues(status).Observe(float64(d.Milliseconds()))
}
