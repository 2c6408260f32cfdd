package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetActiveByCode retrieves an active coupon by exact code within the provided transaction.
// Expiry and usage are not checked here.
func (r *couponRepository) GetActiveByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error) {
	query := `
		SELECT id, code, description, discount_type, value, max_discount, minimum_amount,
		       usage_limit, usage_count, expires_at, is_active
		FROM coupons
		WHERE code = $1 AND is_active
	`

	var c model.Coupon
	err := tx.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.Value, &c.MaxDiscount, &c.MinimumAmount,
		&c.UsageLimit, &c.UsageCount, &c.ExpiresAt, &c.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// Redeem increments usage_count unless the usage limit is reached.
func (r *couponRepository) Redeem(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE id = $1 AND (usage_limit = 0 OR usage_count < usage_limit)
	`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to redeem coupon")
		return false, fmt.Errorf("failed to redeem coupon: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpsertCoupons inserts or updates coupon definitions by code in one transaction.
// usage_count is never overwritten; a usage_limit below it is raised to match.
func (r *couponRepository) UpsertCoupons(ctx context.Context, coupons []model.Coupon) (written int, err error) {
	if len(coupons) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.Error().Err(rbErr).Msg("failed to rollback coupon upsert")
			}
		}
	}()

	query := `
		INSERT INTO coupons (id, code, description, discount_type, value, max_discount,
		                     minimum_amount, usage_limit, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO UPDATE
		SET description    = EXCLUDED.description,
		    discount_type  = EXCLUDED.discount_type,
		    value          = EXCLUDED.value,
		    max_discount   = EXCLUDED.max_discount,
		    minimum_amount = EXCLUDED.minimum_amount,
		    usage_limit    = CASE
		                         WHEN EXCLUDED.usage_limit > 0 AND EXCLUDED.usage_limit < coupons.usage_count
		                         THEN coupons.usage_count
		                         ELSE EXCLUDED.usage_limit
		                     END,
		    expires_at     = EXCLUDED.expires_at,
		    is_active      = EXCLUDED.is_active
	`

	batch := &pgx.Batch{}
	for _, c := range coupons {
		id := c.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(query, id, c.Code, c.Description, string(c.DiscountType), c.Value, c.MaxDiscount,
			c.MinimumAmount, c.UsageLimit, c.ExpiresAt, c.IsActive)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(coupons); i++ {
		if _, err = results.Exec(); err != nil {
			results.Close()
			r.logger.Error().
				Err(err).
				Str("code", coupons[i].Code).
				Msg("failed to upsert coupon")
			return 0, fmt.Errorf("failed to upsert coupon %s: %w", coupons[i].Code, err)
		}
		written++
	}
	if err = results.Close(); err != nil {
		return 0, fmt.Errorf("failed to upsert coupons: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit coupon upsert")
		return 0, fmt.Errorf("failed to commit coupon upsert: %w", err)
	}

	r.logger.Info().Int("count", written).Msg("coupons upserted")

	return written, nil
}
