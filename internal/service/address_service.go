package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type AddressInput struct {
	Recipient  string
	Phone      string
	Line1      string
	Line2      string
	City       string
	Province   string
	PostalCode string
	IsMain     bool
}

type AddressService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*domain.Address, error)
	Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*domain.Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetMain(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error)
}

type addressService struct {
	addresses repository.AddressRepository
}

func NewAddressService(addresses repository.AddressRepository) AddressService {
	return &addressService{addresses: addresses}
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	addresses, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// Create enforces the per-user limit in the repository; the first address
// always becomes the main one.
func (s *addressService) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*domain.Address, error) {
	now := time.Now().UTC()
	address := &domain.Address{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyAddressInput(address, input)

	if err := s.addresses.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return address, nil
}

func (s *addressService) Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*domain.Address, error) {
	address, err := s.addresses.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	applyAddressInput(address, input)
	address.UpdatedAt = time.Now().UTC()

	if err := s.addresses.Update(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return address, nil
}

func (s *addressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.addresses.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

func (s *addressService) SetMain(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	if err := s.addresses.SetMain(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("failed to set main address: %w", err)
	}
	return s.addresses.FindByID(ctx, userID, id)
}

func applyAddressInput(a *domain.Address, input AddressInput) {
	a.Recipient = strings.TrimSpace(input.Recipient)
	a.Phone = strings.TrimSpace(input.Phone)
	a.Line1 = strings.TrimSpace(input.Line1)
	a.Line2 = strings.TrimSpace(input.Line2)
	a.City = strings.TrimSpace(input.City)
	a.Province = strings.TrimSpace(input.Province)
	a.PostalCode = strings.TrimSpace(input.PostalCode)
	a.IsMain = input.IsMain
}
