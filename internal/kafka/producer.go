package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topic  string
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log}
}

// PublishChange streams an event change, keyed by event id so that changes
// to one event stay ordered within a partition.
func (p *Producer) PublishChange(ctx context.Context, change models.EventChange) error {
	msgBytes, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal event change: %w", err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(change.Event.ID),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(change.Action)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s change for %s: %w", change.Action, change.Event.ID, err)
	}

	p.Logger.LogKafka("PUBLISH", p.Topic, fmt.Sprintf("%s %s", change.Action, change.Event.ID))
	return nil
}

// PublishSync sends a sync envelope; external services and tests use it to
// feed the sync topic.
func (p *Producer) PublishSync(ctx context.Context, msg models.SyncMessage) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal sync message: %w", err)
	}
	key := msg.ReferenceID
	if key == "" && msg.Payload != nil {
		key = msg.Payload.Reference(msg.Kind)
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: msgBytes})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
