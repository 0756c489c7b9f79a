// Package observability holds the Prometheus collectors exported on /metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "exercise_tracker"

var (
	usersRegisteredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "users",
		Name:      "registered_total",
		Help:      "Number of users successfully registered.",
	})

	exercisesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exercises",
		Name:      "logged_total",
		Help:      "Number of exercises appended to user logs.",
	})

	lastExerciseGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "exercises",
		Name:      "last_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise appended to a log.",
	})

	eventsPublishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Number of domain events handed to the publisher, labeled by event type and outcome.",
	}, []string{"event_type", "outcome"})
)

func init() {
	prometheus.MustRegister(usersRegisteredCounter, exercisesLoggedCounter, lastExerciseGauge, eventsPublishedCounter)
}

// RecordUserRegistered counts a newly registered user.
func RecordUserRegistered() {
	usersRegisteredCounter.Inc()
}

// RecordExerciseLogged counts an appended exercise and moves the watermark.
func RecordExerciseLogged(ts time.Time) {
	exercisesLoggedCounter.Inc()
	if ts.IsZero() {
		return
	}
	lastExerciseGauge.Set(float64(ts.Unix()))
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(eventType string, ok bool) {
	outcome := "delivered"
	if !ok {
		outcome = "failed"
	}
	eventsPublishedCounter.WithLabelValues(eventType, outcome).Inc()
}
