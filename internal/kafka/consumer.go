package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/segmentio/kafka-go"
)

const maxHandleAttempts = 3

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type SyncHandler func(ctx context.Context, msg models.SyncMessage) error

type Consumer struct {
	Reader  MessageReader
	Topic   string
	Logger  *logger.Logger
	Backoff time.Duration
}

// NewConsumer creates a consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{Reader: reader, Topic: topic, Logger: log, Backoff: time.Second}
}

// DecodeSyncMessage parses one envelope from the sync topic.
func DecodeSyncMessage(value []byte) (models.SyncMessage, error) {
	var msg models.SyncMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return msg, fmt.Errorf("decode sync message: %w", err)
	}
	if msg.Action == "" {
		return msg, errors.New("decode sync message: action is missing")
	}
	return msg, nil
}

// Start consumes until ctx is cancelled. Malformed and invalid messages are
// logged and committed; storage failures are retried a few times first.
func (c *Consumer) Start(ctx context.Context, handler SyncHandler) error {
	c.Logger.LogKafka("CONSUME", c.Topic, "Consumer started")

	for {
		msg, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.Logger.LogKafka("CONSUME", c.Topic, "Consumer stopped")
				return nil
			}
			return fmt.Errorf("fetch from %s: %w", c.Topic, err)
		}

		c.handle(ctx, msg, handler)

		if err := c.Reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.Logger.Error("KAFKA", fmt.Sprintf("Failed to commit offset %d: %v", msg.Offset, err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler SyncHandler) {
	envelope, err := DecodeSyncMessage(msg.Value)
	if err != nil {
		c.Logger.Warn("KAFKA", fmt.Sprintf("Skipping offset %d: %v", msg.Offset, err))
		return
	}

	for attempt := 1; attempt <= maxHandleAttempts; attempt++ {
		err = handler(ctx, envelope)
		if err == nil {
			c.Logger.LogKafka("CONSUME", c.Topic, fmt.Sprintf("Applied %s %s %s", envelope.Action, envelope.Kind, envelope.ReferenceID))
			return
		}
		if calendar.IsValidation(err) || errors.Is(err, calendar.ErrNotFound) {
			c.Logger.Warn("KAFKA", fmt.Sprintf("Rejected %s at offset %d: %v", envelope.Action, msg.Offset, err))
			return
		}

		c.Logger.Error("KAFKA", fmt.Sprintf("Attempt %d/%d for offset %d failed: %v", attempt, maxHandleAttempts, msg.Offset, err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.Backoff * time.Duration(attempt)):
		}
	}
}

// Close gracefully shuts down the reader
func (c *Consumer) Close() error {
	return c.Reader.Close()
}
