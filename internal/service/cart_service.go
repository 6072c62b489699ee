package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/pagination"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

type CartService interface {
	ListItems(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.CartItem], error)
	Summary(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	carts repository.CartRepository
}

func NewCartService(carts repository.CartRepository) CartService {
	return &cartService{carts: carts}
}

func (s *cartService) ListItems(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.CartItem], error) {
	page, err := s.carts.ListItems(ctx, userID, params)
	if err != nil {
		return pagination.Page[*domain.CartItem]{}, fmt.Errorf("failed to list cart items: %w", err)
	}
	return page, nil
}

func (s *cartService) Summary(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error) {
	summary, err := s.carts.Summary(ctx, userID)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("failed to summarize cart: %w", err)
	}
	return summary, nil
}

// AddItem adds quantity to the line, the repository caps the result at stock.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.carts.AddItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return item, nil
}

// SetQuantity removes the line for quantity <= 0 and returns a nil item.
func (s *cartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	item, err := s.carts.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to set cart quantity: %w", err)
	}
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.carts.RemoveItem(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
