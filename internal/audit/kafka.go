package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaStore publishes audit events to a Kafka topic. Events are produced
// asynchronously; a failed delivery is logged but never blocks the gate.
type KafkaStore struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaStore connects to the given brokers and publishes to topic.
func NewKafkaStore(brokers []string, topic string, logger *slog.Logger) (*KafkaStore, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("audit kafka: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("audit kafka: topic is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("audit kafka: create client: %w", err)
	}
	return &KafkaStore{client: client, topic: topic, logger: logger}, nil
}

// Append serializes the event and hands it to the producer.
func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit kafka: marshal event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.ID.String()),
		Value: value,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("failed to publish audit event", "error", err, "event_id", event.ID)
		}
	})
	return nil
}

// List is not supported on the Kafka sink.
func (s *KafkaStore) List(context.Context) ([]Event, error) {
	return nil, fmt.Errorf("audit kafka: listing events is not supported")
}

// Close flushes pending records and releases the client.
func (s *KafkaStore) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return fmt.Errorf("audit kafka: flush: %w", err)
	}
	s.client.Close()
	return nil
}
