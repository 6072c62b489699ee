package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pagination"

	"github.com/google/uuid"
)

var ErrWishlistItemNotFound = errors.New("wishlist item not found")

// WishlistRepository defines the interface for wishlist data access
type WishlistRepository interface {
	Add(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.WishlistItem], error)
}

type wishlistRepository struct {
	db *sql.DB
}

// NewWishlistRepository creates a new instance of WishlistRepository
func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

// Add saves a product; it reports false when the product was already saved.
func (r *wishlistRepository) Add(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (id, user_id, product_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, uuid.New(), userID, productID, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrProductNotFound
		}
		return false, fmt.Errorf("failed to add wishlist item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}

	return ensureAffected(result, ErrWishlistItemNotFound)
}

func (r *wishlistRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)
	`, userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist item: %w", err)
	}
	return exists, nil
}

// List returns a keyset page of saved products, most recently saved first.
func (r *wishlistRepository) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.WishlistItem], error) {
	args := []interface{}{userID}
	where := "WHERE w.user_id = $1"

	if params.Cursor != nil {
		args = append(args, params.Cursor.CreatedAt, params.Cursor.ID)
		where += " AND (w.created_at, w.id) < ($2, $3)"
	}

	args = append(args, params.Limit+1)
	query := fmt.Sprintf(`
		SELECT w.id, w.user_id, w.product_id, p.name, p.slug, p.price, p.stock,
		       COALESCE((SELECT pi.url FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.position, pi.created_at LIMIT 1), ''),
		       w.created_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		%s
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $%d
	`, where, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return pagination.Page[*domain.WishlistItem]{}, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	items := []*domain.WishlistItem{}
	for rows.Next() {
		item := &domain.WishlistItem{}
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductSlug,
			&item.Price,
			&item.Stock,
			&item.ImageURL,
			&item.CreatedAt,
		); err != nil {
			return pagination.Page[*domain.WishlistItem]{}, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return pagination.Page[*domain.WishlistItem]{}, fmt.Errorf("error iterating wishlist: %w", err)
	}

	return pagination.NewPage(items, params.Limit, func(i *domain.WishlistItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
	}), nil
}
