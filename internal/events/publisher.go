// Package events publishes message lifecycle events to Kafka for downstream
// consumers (analytics, push delivery). Publishing is best-effort: the chat
// path never fails because the broker is down.
package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/khalteck/Rooms/internal/models"
)

type MessageSent struct {
	RoomID    string    `json:"roomId"`
	MessageID string    `json:"messageId"`
	SenderID  string    `json:"senderId"`
	Type      string    `json:"type"`
	SentAt    time.Time `json:"sentAt"`
}

type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher returns nil when no brokers are configured; a nil *Publisher
// is safe to call and publishes nothing.
func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	return &Publisher{writer: &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}}
}

func (p *Publisher) MessageSent(ctx context.Context, m *models.Message) error {
	if p == nil {
		return nil
	}
	b, err := json.Marshal(MessageSent{
		RoomID:    m.RoomID,
		MessageID: m.ID.Hex(),
		SenderID:  m.SenderID,
		Type:      m.Type,
		SentAt:    m.Timestamp,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(m.RoomID),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
