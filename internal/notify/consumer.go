package notify

import (
	"context"
	"encoding/json"
	"errors"

	"storefront/internal/config"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, event Event) error

// messageReader is the subset of *kafka.Reader used by Consumer.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads notification events from Kafka and hands them to a Handler.
type Consumer struct {
	reader messageReader
	logger zerolog.Logger
}

// NewConsumer creates a consumer-group reader for cfg.Topic.
func NewConsumer(cfg config.KafkaConfig, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return newConsumer(reader, logger)
}

func newConsumer(reader messageReader, logger zerolog.Logger) *Consumer {
	return &Consumer{
		reader: reader,
		logger: logger.With().Str("component", "notification-consumer").Logger(),
	}
}

// Consume fetches, handles and commits messages until ctx is cancelled.
// Undecodable messages are logged and committed. A handler error stops the loop
// without committing, so the message is redelivered.
func (c *Consumer) Consume(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping malformed notification")
		} else if err := handle(ctx, event); err != nil {
			c.logger.Error().Err(err).Str("type", string(event.Type)).Int64("offset", msg.Offset).Msg("notification handler failed")
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
