package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
)

const (
	TypeTransferSettled      = "transfer.settled"
	TypeTransferFailed       = "transfer.failed"
	TypeTransferManualReview = "transfer.manual_review"
)

type SettlementEvent struct {
	Type              string                 `json:"type"`
	SettlementID      string                 `json:"settlement_id"`
	SenderCountryID   int64                  `json:"sender_country_id"`
	ReceiverCountryID int64                  `json:"receiver_country_id"`
	PaymentMethodID   int64                  `json:"payment_method_id"`
	Amount            decimal.Decimal        `json:"amount"`
	Status            model.SettlementStatus `json:"status"`
	Note              json.RawMessage        `json:"note,omitempty"`
	OccurredAt        time.Time              `json:"occurred_at"`
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits one message per settlement, keyed by settlement id.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Debug().Msgf(msg, args...)
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf(msg, args...)
		}),
	}
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, timeout: 5 * time.Second}
}

func (p *KafkaPublisher) PublishSettlement(ctx context.Context, s *model.Settlement) error {
	msg, err := buildMessage(s)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish settlement %s: %w", s.ID, err)
	}
	log.Debug().Str("settlement_id", s.ID).Str("status", string(s.Status)).Msg("settlement event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func eventType(status model.SettlementStatus) string {
	switch status {
	case model.SettlementCompleted:
		return TypeTransferSettled
	case model.SettlementManualReview:
		return TypeTransferManualReview
	default:
		return TypeTransferFailed
	}
}

func buildMessage(s *model.Settlement) (kafka.Message, error) {
	note, err := model.MarshalNote(s.Note)
	if err != nil {
		return kafka.Message{}, err
	}

	value, err := json.Marshal(SettlementEvent{
		Type:              eventType(s.Status),
		SettlementID:      s.ID,
		SenderCountryID:   s.SenderCountryID,
		ReceiverCountryID: s.ReceiverCountryID,
		PaymentMethodID:   s.PaymentMethodID,
		Amount:            s.Amount,
		Status:            s.Status,
		Note:              note,
		OccurredAt:        s.CreatedAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode settlement event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(s.ID),
		Value: value,
		Time:  s.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType(s.Status))},
		},
	}, nil
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishSettlement(ctx context.Context, s *model.Settlement) error { return nil }

func (NopPublisher) Close() error { return nil }
