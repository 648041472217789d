package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher writes audit events to a Kafka topic, keyed by match id so
// one match's history stays ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.MatchID),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit event delivery failed",
				"type", string(event.Type), "error", err)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush audit events: %w", err)
	}
	p.client.Close()
	return nil
}
