package consumer

import "github.com/prometheus/client_golang/prometheus"

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "feed",
		Name:      "events_processed_total",
		Help:      "Number of exercise events consumed and committed, by event type.",
	}, []string{"event_type"})

	failedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "feed",
		Name:      "events_failed_total",
		Help:      "Number of exercise events rejected, by stage (decode or handle) and event type.",
	}, []string{"stage", "event_type"})

	lagGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "feed",
		Name:      "last_event_timestamp_seconds",
		Help:      "Kafka timestamp of the most recently committed event.",
	})

	minutesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "feed",
		Name:      "exercise_minutes_total",
		Help:      "Sum of durations of consumed exercise.logged events.",
	})
)

func init() {
	prometheus.MustRegister(processedCounter, failedCounter, lagGauge, minutesCounter)
}

func recordProcessed(msg Message) {
	processedCounter.WithLabelValues(msg.EventType).Inc()
	if !msg.Timestamp.IsZero() {
		lagGauge.Set(float64(msg.Timestamp.Unix()))
	}
}

func recordHandlerError(msg Message) {
	failedCounter.WithLabelValues("handle", msg.EventType).Inc()
}

func recordDecodeError() {
	failedCounter.WithLabelValues("decode", "unknown").Inc()
}
