package service

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/pagination"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type WishlistService interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.WishlistItem], error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type wishlistService struct {
	wishlist repository.WishlistRepository
}

func NewWishlistService(wishlist repository.WishlistRepository) WishlistService {
	return &wishlistService{wishlist: wishlist}
}

func (s *wishlistService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.WishlistItem], error) {
	page, err := s.wishlist.List(ctx, userID, params)
	if err != nil {
		return pagination.Page[*domain.WishlistItem]{}, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return page, nil
}

// Add is idempotent.
func (s *wishlistService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.wishlist.Add(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return nil
}

func (s *wishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.wishlist.Remove(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return nil
}

// Toggle reports whether the product is in the wishlist afterwards.
func (s *wishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	added, err := s.wishlist.Add(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle wishlist: %w", err)
	}
	if added {
		return true, nil
	}

	if err := s.wishlist.Remove(ctx, userID, productID); err != nil {
		return false, fmt.Errorf("failed to toggle wishlist: %w", err)
	}
	return false, nil
}

func (s *wishlistService) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	ok, err := s.wishlist.Exists(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return ok, nil
}
