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

type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

// GetForUser retrieves an address only if it belongs to userID.
func (r *addressRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Address, error) {
	query := `
		SELECT id, user_id, full_name, line1, line2, city, state, postal_code, country, phone, created_at
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`

	var a model.Address
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&a.ID, &a.UserID, &a.FullName, &a.Line1, &a.Line2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.Phone, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("address_id", id.String()).Msg("address not found for user")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}

	return &a, nil
}
