//go:build integration

package consumer

import (
	"bytes"
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/frossokourou/exercise-tracker/internal/events"
)

type capturingHandler struct {
	mu   sync.Mutex
	msgs []Message
	done chan struct{}
	want int
}

func (h *capturingHandler) Handle(_ context.Context, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	if len(h.msgs) == h.want {
		close(h.done)
	}
	return nil
}

func TestPublishedEventsRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kafkaC, err := kafkaContainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		testcontainers.WithEnv(map[string]string{"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true"}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	topic := "exercise_events"
	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
	_ = conn.Close()

	publisher := events.NewKafkaPublisher(brokers, topic)
	t.Cleanup(func() { _ = publisher.Close() })

	require.NoError(t, publisher.Publish(ctx, events.UserRegistered{UserID: "u-1", Username: "alice", RegisteredAt: time.Now().UTC()}))
	require.NoError(t, publisher.Publish(ctx, events.ExerciseLogged{UserID: "u-1", Username: "alice", Description: "run", Duration: 30, Date: time.Now().UTC()}))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  "exercise-feed-test",
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	t.Cleanup(func() { _ = reader.Close() })

	handler := &capturingHandler{done: make(chan struct{}), want: 2}
	var logs bytes.Buffer
	proc := NewProcessor(reader, handler, WithLogger(log.New(&logs, "", 0)))

	runCtx, stop := context.WithCancel(ctx)
	go func() { _ = proc.Run(runCtx) }()

	select {
	case <-handler.done:
	case <-ctx.Done():
		t.Fatalf("timed out waiting for events: %s", logs.String())
	}
	stop()

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Equal(t, events.TypeUserRegistered, handler.msgs[0].EventType)
	require.Equal(t, events.TypeExerciseLogged, handler.msgs[1].EventType)
	require.Equal(t, "u-1", handler.msgs[1].UserID)
}
