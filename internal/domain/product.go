package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog. Price is in minor currency units.
type Product struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	CategoryID  uuid.UUID      `json:"category_id" db:"category_id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	Description string         `json:"description" db:"description"`
	Price       int64          `json:"price" db:"price"`
	Stock       int            `json:"stock" db:"stock"`
	IsActive    bool           `json:"is_active" db:"is_active"`
	ImageURL    string         `json:"image_url,omitempty" db:"image_url"`
	Images      []ProductImage `json:"images,omitempty"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Available reports whether qty units can be sold right now.
func (p *Product) Available(qty int) bool {
	return p.IsActive && qty > 0 && p.Stock >= qty
}

// ProductImage points at an object uploaded to storage.
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	ObjectKey string    `json:"object_key" db:"object_key"`
	URL       string    `json:"url" db:"url"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Query      string
	MinPrice   *int64
	MaxPrice   *int64
	OnlyActive bool
}
