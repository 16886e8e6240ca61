// Package kafka publishes story lifecycle events to a Kafka topic, keyed by
// user ID so one user's events stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hearthside/loom/pkg/eventstream"
)

// DefaultTopic is the topic used when none is configured.
const DefaultTopic = "loom.stories"

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of broker addresses. Required.
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic.
	Topic string

	// BatchTimeout bounds how long writes may buffer. Defaults to 1s.
	BatchTimeout time.Duration
}

// Publisher implements eventstream.Publisher on a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
}

// New creates a Kafka-backed publisher.
func New(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafkago.RequireOne,
	}

	return &Publisher{writer: writer}, nil
}

// PublishStory writes the event as a JSON message keyed by user ID.
func (p *Publisher) PublishStory(ctx context.Context, event *eventstream.StoryEvent) error {
	if event == nil || event.EventID == "" || event.StoryID == "" {
		return eventstream.ErrInvalidEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling story event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.UserID),
		Value: value,
		Time:  event.EmittedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing story event: %w", err)
	}
	return nil
}

// Close flushes buffered messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
