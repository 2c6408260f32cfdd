package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, logger zerolog.Logger) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// GetCart resolves the caller's cart.
//
// With a session key the session cart is used; an authenticated caller adopts
// it, absorbing any other cart they own. Without one the user's own cart is used.
func (s *cartService) GetCart(ctx context.Context, sessionKey string, userID *uuid.UUID) (*model.Cart, error) {
	if sessionKey == "" {
		if userID == nil {
			return nil, model.ErrSessionRequired
		}
		cart, err := s.cartRepo.GetOrCreateByUser(ctx, *userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get cart: %w", err)
		}
		return cart, nil
	}

	cart, err := s.cartRepo.GetOrCreateBySessionKey(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	if userID == nil {
		return cart, nil
	}

	if cart.UserID != nil {
		if *cart.UserID == *userID {
			return cart, nil
		}
		s.logger.Warn().
			Str("cart_id", cart.ID.String()).
			Str("user_id", userID.String()).
			Msg("session cart belongs to another user")
		return s.GetCart(ctx, "", userID)
	}

	other, err := s.cartRepo.FindOtherUserCart(ctx, *userID, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	if other != nil {
		if err := s.cartRepo.Merge(ctx, other.ID, cart.ID, *userID); err != nil {
			return nil, fmt.Errorf("failed to merge carts: %w", err)
		}
		s.logger.Info().
			Str("from_cart", other.ID.String()).
			Str("to_cart", cart.ID.String()).
			Str("user_id", userID.String()).
			Msg("carts merged")
	} else if err := s.cartRepo.AssignUser(ctx, cart.ID, *userID); err != nil {
		return nil, fmt.Errorf("failed to assign cart: %w", err)
	}

	return s.reload(ctx, cart.ID)
}

// AddItem adds qty units of a published product at its current price.
func (s *cartService) AddItem(ctx context.Context, cartID uuid.UUID, productID string, qty int) (*model.Cart, error) {
	if qty < 1 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.IsPublished {
		s.logger.Debug().Str("product_id", productID).Msg("product unavailable")
		return nil, model.ErrProductUnavailable
	}

	if err := s.cartRepo.AddItem(ctx, cartID, productID, qty, product.CurrentPrice()); err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}

	s.logger.Debug().
		Str("cart_id", cartID.String()).
		Str("product_id", productID).
		Int("quantity", qty).
		Msg("item added to cart")

	return s.reload(ctx, cartID)
}

// UpdateItem sets the quantity of an existing line. Zero removes it.
func (s *cartService) UpdateItem(ctx context.Context, cartID uuid.UUID, productID string, qty int) (*model.Cart, error) {
	if qty < 0 {
		return nil, model.ErrInvalidQuantity
	}
	if qty == 0 {
		return s.RemoveItem(ctx, cartID, productID)
	}

	ok, err := s.cartRepo.SetItemQuantity(ctx, cartID, productID, qty)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	if !ok {
		return nil, model.ErrCartItemNotFound
	}

	return s.reload(ctx, cartID)
}

// RemoveItem deletes a line.
func (s *cartService) RemoveItem(ctx context.Context, cartID uuid.UUID, productID string) (*model.Cart, error) {
	ok, err := s.cartRepo.RemoveItem(ctx, cartID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove item: %w", err)
	}
	if !ok {
		return nil, model.ErrCartItemNotFound
	}

	return s.reload(ctx, cartID)
}

// Clear deletes every line of the cart.
func (s *cartService) Clear(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	if err := s.cartRepo.ClearItems(ctx, nil, cartID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return s.reload(ctx, cartID)
}

func (s *cartService) reload(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return nil, fmt.Errorf("cart %s disappeared", cartID)
	}
	return cart, nil
}
