// Package kafka publishes signal events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/newthinker/quantsafe/internal/notifier"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka implements the Notifier interface on a kafka-go writer. Messages are
// keyed by ticker so one asset's events stay ordered within a partition.
type Kafka struct {
	topic  string
	writer messageWriter
}

// New creates a Kafka notifier writing to topic on brokers.
func New(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Gzip,
		MaxAttempts:            3,
		WriteTimeout:           10 * time.Second,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Kafka{topic: topic, writer: writer}, nil
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Send(ctx context.Context, event notifier.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Ticker),
		Value: value,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "signal", Value: []byte(event.Signal.Signal)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
