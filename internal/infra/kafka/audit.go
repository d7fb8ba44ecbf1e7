package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/campushub/lms-auth/internal/core/domain"
	"github.com/campushub/lms-auth/internal/core/port"
)

// auditEnvelope is the wire format published to the audit topic.
type auditEnvelope struct {
	EventID    string         `json:"event_id"`
	Type       string         `json:"type"`
	UserID     *string        `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AuditSink publishes audit events to a Kafka topic. Submission is
// asynchronous: enqueueing succeeds as soon as the producer accepts the
// message, and broker errors surface only in the producer's error loop.
type AuditSink struct {
	producer *Producer
	topic    string
}

// NewAuditSink builds a Kafka-backed audit sink on top of the producer.
func NewAuditSink(producer *Producer, topic string) (*AuditSink, error) {
	if producer == nil {
		return nil, fmt.Errorf("audit sink: producer is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("audit sink: topic is required")
	}
	return &AuditSink{producer: producer, topic: topic}, nil
}

// Publish serializes the event and enqueues it for delivery. Events for
// the same user land on the same partition so per-account history stays
// ordered.
func (s *AuditSink) Publish(ctx context.Context, event domain.AuditEvent) error {
	payload, err := json.Marshal(auditEnvelope{
		EventID:    event.EventID,
		Type:       string(event.Type),
		UserID:     event.UserID,
		OccurredAt: event.OccurredAt,
		Metadata:   event.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := string(event.Type)
	if event.UserID != nil {
		key = *event.UserID
	}

	message := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	select {
	case s.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ port.AuditSink = (*AuditSink)(nil)
