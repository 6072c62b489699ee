package domain

import (
	"time"

	"github.com/google/uuid"
)

type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem is a cart line joined with the product fields the cart screen shows.
type CartItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CartID      uuid.UUID `json:"cart_id" db:"cart_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	ProductName string    `json:"product_name" db:"product_name"`
	ProductSlug string    `json:"product_slug" db:"product_slug"`
	UnitPrice   int64     `json:"unit_price" db:"unit_price"`
	Stock       int       `json:"stock" db:"stock"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func (i *CartItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// CartSummary aggregates a whole cart.
type CartSummary struct {
	Lines    int   `json:"lines"`
	Quantity int   `json:"quantity"`
	Subtotal int64 `json:"subtotal"`
}
