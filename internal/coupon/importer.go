package coupon

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ImportResult summarises an import run.
type ImportResult struct {
	Files   int
	Parsed  int
	Written int
}

// Importer loads catalogue files concurrently and writes them to the store.
type Importer struct {
	loader Loader
	store  Store
	logger zerolog.Logger
}

// NewImporter creates a catalogue importer.
func NewImporter(loader Loader, store Store, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "coupon-importer").Logger(),
	}
}

// Import loads every path and upserts the union. When a code appears in more
// than one file the definition from the later path wins.
func (i *Importer) Import(ctx context.Context, paths ...string) (*ImportResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one catalogue path is required")
	}

	results := make([][]model.Coupon, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for idx, path := range paths {
		g.Go(func() error {
			coupons, err := i.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			results[idx] = coupons
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		i.logger.Error().Err(err).Msg("coupon import aborted")
		return nil, err
	}

	merged := make([]model.Coupon, 0)
	position := make(map[string]int)
	parsed := 0
	for _, coupons := range results {
		parsed += len(coupons)
		for _, c := range coupons {
			if at, ok := position[c.Code]; ok {
				merged[at] = c
				continue
			}
			position[c.Code] = len(merged)
			merged = append(merged, c)
		}
	}

	written, err := i.store.UpsertCoupons(ctx, merged)
	if err != nil {
		i.logger.Error().Err(err).Int("coupons", len(merged)).Msg("failed to store coupons")
		return nil, fmt.Errorf("failed to store coupons: %w", err)
	}

	i.logger.Info().
		Int("files", len(paths)).
		Int("parsed", parsed).
		Int("written", written).
		Msg("coupon catalogue imported")

	return &ImportResult{Files: len(paths), Parsed: parsed, Written: written}, nil
}
