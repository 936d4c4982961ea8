// Package messaging publishes committed ledger changes to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// JournalEvent is the message published for every journal change.
type JournalEvent struct {
	EventID    string              `json:"eventID"`
	EventType  string              `json:"eventType"`
	OccurredAt time.Time           `json:"occurredAt"`
	Entry      domain.JournalEntry `json:"entry"`
}

// KafkaPublisher writes journal events keyed by entry id, so events of one entry
// stay ordered within a partition.
type KafkaPublisher struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
	now    func() time.Time
}

var _ portssvc.LedgerEventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a synchronous publisher for topic.
func NewKafkaPublisher(logger *slog.Logger, brokers []string, topic string, writeTimeout time.Duration) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka ledger topic is not configured")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(logger, writer, topic), nil
}

func newKafkaPublisher(logger *slog.Logger, writer KafkaWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		logger: logger,
		writer: writer,
		topic:  topic,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// PublishJournalEvent implements services.LedgerEventPublisher.
func (p *KafkaPublisher) PublishJournalEvent(ctx context.Context, eventType string, entry domain.JournalEntry) error {
	value, err := json.Marshal(JournalEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: p.now(),
		Entry:      entry,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(entry.EntryID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event to %s: %w", eventType, p.topic, err)
	}

	p.logger.Debug("Published ledger event",
		"topic", p.topic,
		"event_type", eventType,
		"entry_id", entry.EntryID,
	)
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing ledger event publisher", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

// NoopPublisher drops every event. It stands in when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishJournalEvent(context.Context, string, domain.JournalEntry) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
