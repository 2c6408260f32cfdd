package coupon

import (
	"context"
	"fmt"
	"os"

	"storefront/internal/model"

	"github.com/klauspost/pgzip"
	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped catalogue files from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load reads a gzipped catalogue file and returns its coupons.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.Coupon, error) {
	l.logger.Info().Str("file", filePath).Msg("loading coupon catalogue")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open coupon catalogue")
		return nil, fmt.Errorf("failed to open coupon catalogue %s: %w", filePath, err)
	}
	defer file.Close()

	gzipReader, err := pgzip.NewReader(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", filePath, err)
	}
	defer gzipReader.Close()

	coupons, err := parseCatalogue(ctx, gzipReader)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading coupon catalogue")
		return nil, fmt.Errorf("error reading coupon catalogue %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("coupons_loaded", len(coupons)).
		Msg("coupon catalogue loaded successfully")

	return coupons, nil
}
