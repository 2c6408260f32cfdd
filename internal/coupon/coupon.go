// Package coupon holds the discount rules applied at checkout and the
// importer that loads coupon catalogues into the database.
package coupon

import (
	"context"

	"storefront/internal/model"
)

// Loader defines the interface for loading coupon catalogue files.
type Loader interface {
	// Load reads a gzipped CSV catalogue and returns its coupon definitions.
	Load(ctx context.Context, path string) ([]model.Coupon, error)
}

// Store persists imported coupon definitions.
type Store interface {
	// UpsertCoupons inserts or updates coupons by code and returns the number written.
	// Usage counters of existing coupons are preserved.
	UpsertCoupons(ctx context.Context, coupons []model.Coupon) (int, error)
}
