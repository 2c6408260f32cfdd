// Command notifier consumes storefront notification events from Kafka and
// hands them to the delivery channel. Delivery is currently a structured log
// line per recipient-facing message.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/notify"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "storefront-notifier")
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka is disabled, nothing to consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := notify.NewConsumer(cfg.Kafka, logger)
	defer consumer.Close()

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Str("group_id", cfg.Kafka.GroupID).
		Msg("notifier started")

	if err := consumer.Consume(ctx, deliver(logger)); err != nil {
		return fmt.Errorf("consumer stopped: %w", err)
	}

	logger.Info().Msg("notifier stopped")
	return nil
}

func deliver(logger zerolog.Logger) notify.Handler {
	return func(_ context.Context, event notify.Event) error {
		entry := logger.Info().
			Str("type", string(event.Type)).
			Time("occurred_at", event.OccurredAt)

		switch event.Type {
		case notify.EventOrderCreated:
			entry.Str("order_id", event.OrderID).Str("user_id", event.UserID).Msg("order confirmation")
		case notify.EventOrderPaid:
			entry.Str("order_id", event.OrderID).
				Str("provider", event.Provider).
				Str("transaction_id", event.TransactionID).
				Msg("payment receipt")
		case notify.EventLowStock, notify.EventLowStockDigest:
			for _, p := range event.Products {
				logger.Warn().
					Str("type", string(event.Type)).
					Str("product_id", p.ProductID).
					Str("title", p.Title).
					Int("stock", p.Stock).
					Msg("restock needed")
			}
			entry.Int("products", len(event.Products)).Msg("stock alert")
		default:
			entry.Msg("unhandled notification")
		}
		return nil
	}
}
