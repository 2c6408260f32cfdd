package service

import (
	"context"
	"time"

	"storefront/internal/notify"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// LowStockDigest periodically publishes a summary of products at or below the
// low-stock threshold.
type LowStockDigest struct {
	productRepo repository.ProductRepository
	notifier    notify.Notifier
	threshold   int
	interval    time.Duration
	logger      zerolog.Logger
}

// NewLowStockDigest creates the digest job.
func NewLowStockDigest(
	productRepo repository.ProductRepository,
	notifier notify.Notifier,
	threshold int,
	interval time.Duration,
	logger zerolog.Logger,
) *LowStockDigest {
	return &LowStockDigest{
		productRepo: productRepo,
		notifier:    notifier,
		threshold:   threshold,
		interval:    interval,
		logger:      logger.With().Str("component", "low-stock-digest").Logger(),
	}
}

// RunOnce sends one digest. Nothing is sent when no product is low.
func (d *LowStockDigest) RunOnce(ctx context.Context) error {
	alerts, err := d.productRepo.LowStock(ctx, d.threshold, inventoryAlertsLimit)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to load low stock products")
		return err
	}
	if len(alerts) == 0 {
		d.logger.Debug().Msg("no low stock products")
		return nil
	}

	d.notifier.Notify(ctx, notify.LowStockDigest(alerts))
	d.logger.Info().Int("products", len(alerts)).Msg("low stock digest sent")
	return nil
}

// Run sends a digest every interval until ctx is cancelled.
func (d *LowStockDigest) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = d.RunOnce(ctx)
		}
	}
}
