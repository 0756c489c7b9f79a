package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/frossokourou/exercise-tracker/internal/observability"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher encodes events as JSON and writes them to a single topic.
// The writer is created lazily on first publish.
type KafkaPublisher struct {
	brokers []string
	topic   string

	mu        sync.Mutex
	writer    messageWriter
	newWriter func(brokers []string, topic string) messageWriter
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		brokers:   brokers,
		topic:     topic,
		newWriter: newKafkaWriter,
	}
}

func newKafkaWriter(brokers []string, topic string) messageWriter {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
}

// Publish writes one event. The event type travels in the event_type header.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Type(), err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type())},
		},
	}

	if err := p.writerOrCreate().WriteMessages(ctx, msg); err != nil {
		observability.RecordEventPublished(event.Type(), false)
		return fmt.Errorf("write %s to %s: %w", event.Type(), p.topic, err)
	}
	observability.RecordEventPublished(event.Type(), true)
	return nil
}

func (p *KafkaPublisher) writerOrCreate() messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		p.writer = p.newWriter(p.brokers, p.topic)
	}
	return p.writer
}

// Close flushes and releases the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}
