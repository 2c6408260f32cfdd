package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

// Upsert records a payment attempt. On conflict the existing row keeps its id
// and creation time; payment.ID is updated to the stored id.
func (r *paymentRepository) Upsert(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payload := payment.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	query := `
		INSERT INTO payments (id, order_id, provider, amount, currency, status, transaction_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id, provider, transaction_id) DO UPDATE
		SET amount     = EXCLUDED.amount,
		    currency   = EXCLUDED.currency,
		    status     = EXCLUDED.status,
		    payload    = EXCLUDED.payload,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		payment.ID, payment.OrderID, string(payment.Provider), payment.Amount, payment.Currency,
		string(payment.Status), payment.TransactionID, string(payload),
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", payment.OrderID.String()).
			Str("provider", string(payment.Provider)).
			Str("transaction_id", payment.TransactionID).
			Msg("failed to upsert payment")
		return fmt.Errorf("failed to upsert payment: %w", err)
	}

	r.logger.Debug().
		Str("payment_id", payment.ID.String()).
		Str("status", string(payment.Status)).
		Msg("payment recorded")

	return nil
}
