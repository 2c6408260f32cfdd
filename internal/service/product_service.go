package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// clampPage bounds pagination to 1..100 items.
func clampPage(limit, offset, defaultLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List retrieves published products with pagination.
func (s *productService) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	limit, offset = clampPage(limit, offset, 10)

	products, err := s.productRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		s.logger.Warn().Msg("product ID is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// GetBySlug retrieves a published product with tags and rating.
func (s *productService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	if slug == "" {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to get product by slug")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("slug", slug).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// ListReviews retrieves the reviews of a published product, newest first.
func (s *productService) ListReviews(ctx context.Context, slug string, limit, offset int) ([]model.Review, error) {
	product, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	limit, offset = clampPage(limit, offset, 20)

	reviews, err := s.productRepo.ListReviews(ctx, product.ID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to list reviews")
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}
