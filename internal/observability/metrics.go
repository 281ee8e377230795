// Package observability registers the Prometheus collectors shared by the practice pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	framesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posecoach",
		Subsystem: "practice",
		Name:      "frames_processed_total",
		Help:      "Number of detection frames classified, labeled by pose.",
	}, []string{"pose"})

	verdictCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posecoach",
		Subsystem: "practice",
		Name:      "verdicts_total",
		Help:      "Classification verdicts grouped by pose and outcome (correct, incorrect).",
	}, []string{"pose", "outcome"})

	holdsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posecoach",
		Subsystem: "hold",
		Name:      "finalized_total",
		Help:      "Holds finalized by the hold timer, labeled by pose.",
	}, []string{"pose"})

	holdsDiscardedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posecoach",
		Subsystem: "hold",
		Name:      "discarded_total",
		Help:      "In-progress holds dropped because the practice session stopped.",
	}, []string{"pose"})

	holdDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "posecoach",
		Subsystem: "hold",
		Name:      "duration_seconds",
		Help:      "Length of finalized holds.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	}, []string{"pose"})

	submissionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posecoach",
		Subsystem: "recorder",
		Name:      "submissions_total",
		Help:      "Session API submissions grouped by result (ok, failed).",
	}, []string{"result"})

	lastRecordedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "posecoach",
		Subsystem: "recorder",
		Name:      "last_session_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent hold accepted by the Session API.",
	})

	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posecoach",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Hold events written to Kafka grouped by result (ok, failed).",
	}, []string{"result"})

	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "posecoach",
		Subsystem: "practice",
		Name:      "active_sessions",
		Help:      "Practice loops currently running.",
	})
)

func init() {
	prometheus.MustRegister(
		framesCounter,
		verdictCounter,
		holdsCounter,
		holdsDiscardedCounter,
		holdDuration,
		submissionCounter,
		lastRecordedGauge,
		eventsCounter,
		activeSessions,
	)
}

// RecordVerdict counts a classified frame.
func RecordVerdict(pose string, correct bool) {
	framesCounter.WithLabelValues(pose).Inc()
	outcome := "incorrect"
	if correct {
		outcome = "correct"
	}
	verdictCounter.WithLabelValues(pose, outcome).Inc()
}

// RecordHoldFinalized tracks a hold emitted by the hold timer.
func RecordHoldFinalized(pose string, seconds int) {
	holdsCounter.WithLabelValues(pose).Inc()
	holdDuration.WithLabelValues(pose).Observe(float64(seconds))
}

// RecordHoldDiscarded tracks an unfinalized hold dropped on cancellation.
func RecordHoldDiscarded(pose string) {
	holdsDiscardedCounter.WithLabelValues(pose).Inc()
}

// RecordSubmission tracks the outcome of a Session API submission.
func RecordSubmission(err error, ts time.Time) {
	if err != nil {
		submissionCounter.WithLabelValues("failed").Inc()
		return
	}
	submissionCounter.WithLabelValues("ok").Inc()
	if !ts.IsZero() {
		lastRecordedGauge.Set(float64(ts.Unix()))
	}
}

// RecordEventPublished tracks the outcome of a Kafka hold event write.
func RecordEventPublished(err error) {
	if err != nil {
		eventsCounter.WithLabelValues("failed").Inc()
		return
	}
	eventsCounter.WithLabelValues("ok").Inc()
}

// SessionStarted increments the active practice gauge.
func SessionStarted() {
	activeSessions.Inc()
}

// SessionStopped decrements the active practice gauge.
func SessionStopped() {
	activeSessions.Dec()
}
