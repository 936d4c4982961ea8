package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestPublisher(writer KafkaWriter) *KafkaPublisher {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := newKafkaPublisher(logger, writer, "ledger.journal-events")
	p.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return p
}

func TestKafkaPublisher_PublishJournalEvent(t *testing.T) {
	ctx := context.Background()
	entry := domain.JournalEntry{
		EntryID:     "je-1",
		EntryNumber: "JE-000001",
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(100),
	}

	t.Run("keys by entry id", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		publisher := newTestPublisher(writer)

		writer.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != "je-1" {
				return false
			}
			var ev JournalEvent
			if err := json.Unmarshal(msgs[0].Value, &ev); err != nil {
				return false
			}
			return ev.EventType == "journal.posted" && ev.Entry.EntryNumber == "JE-000001" && ev.EventID != "" &&
				string(msgs[0].Headers[0].Value) == "journal.posted"
		})).Return(nil).Once()

		require.NoError(t, publisher.PublishJournalEvent(ctx, "journal.posted", entry))
		writer.AssertExpectations(t)
	})

	t.Run("wraps writer errors", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		publisher := newTestPublisher(writer)
		writeErr := errors.New("broker unavailable")

		writer.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writeErr).Once()

		err := publisher.PublishJournalEvent(ctx, "journal.reversed", entry)
		assert.ErrorIs(t, err, writeErr)
		assert.Contains(t, err.Error(), "ledger.journal-events")
		writer.AssertExpectations(t)
	})
}

func TestKafkaPublisher_Close(t *testing.T) {
	writer := new(MockKafkaWriter)
	writer.On("Close").Return(nil).Once()

	require.NoError(t, newTestPublisher(writer).Close())
	writer.AssertExpectations(t)
}

func TestNewKafkaPublisher_RequiresBrokersAndTopic(t *testing.T) {
	logger := slog.Default()

	_, err := NewKafkaPublisher(logger, nil, "topic", time.Second)
	assert.EqualError(t, err, "kafka brokers are not configured")

	_, err = NewKafkaPublisher(logger, []string{"localhost:9092"}, "", time.Second)
	assert.EqualError(t, err, "kafka ledger topic is not configured")

	p, err := NewKafkaPublisher(logger, []string{"localhost:9092"}, "topic", time.Second)
	require.NoError(t, err)
	assert.NotNil(t, p.writer)
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.PublishJournalEvent(context.Background(), "journal.posted", domain.JournalEntry{}))
	assert.NoError(t, NoopPublisher{}.Close())
}
