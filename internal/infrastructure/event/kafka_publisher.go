package event

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/sales"
	"github.com/shopfront/backend/internal/domain/shared"
	infraconfig "github.com/shopfront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// MessageWriter is the subset of kafka.Writer used for publishing
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder is an event handler that forwards sale and product events
// to Kafka, keyed by aggregate id so per-aggregate ordering is kept.
type KafkaForwarder struct {
	writer       MessageWriter
	topics       map[string]string // aggregate type -> topic
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewKafkaWriter builds a kafka.Writer for the configured brokers. Topics are
// set per message.
func NewKafkaWriter(cfg infraconfig.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaForwarder creates a forwarder writing to the configured topics
func NewKafkaForwarder(writer MessageWriter, cfg infraconfig.KafkaConfig, logger *zap.Logger) *KafkaForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaForwarder{
		writer: writer,
		topics: map[string]string{
			sales.AggregateTypeSale:      cfg.SalesTopic,
			catalog.AggregateTypeProduct: cfg.CatalogTopic,
		},
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
	}
}

// EventTypes returns the forwarded event types
func (f *KafkaForwarder) EventTypes() []string {
	return []string{
		sales.EventTypeSaleCreated,
		sales.EventTypeSaleStatusChanged,
		catalog.EventTypeProductCreated,
		catalog.EventTypeProductUpdated,
	}
}

// Handle encodes the event and writes it to the topic of its aggregate type
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	topic, ok := f.topics[event.AggregateType()]
	if !ok || topic == "" {
		f.logger.Debug("No topic for aggregate type, skipping",
			zap.String("aggregate_type", event.AggregateType()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	value, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	if f.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.writeTimeout)
		defer cancel()
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.AggregateID().String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
			{Key: "event_id", Value: []byte(event.EventID().String())},
		},
		Time: event.OccurredAt(),
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", event.EventType(), topic, err)
	}

	f.logger.Debug("Event forwarded",
		zap.String("topic", topic),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
	return nil
}

// Close closes the underlying writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
