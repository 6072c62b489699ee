package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/pagination"

	"github.com/google/uuid"
)

var (
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// CartRepository defines the interface for cart data access. Every method is
// keyed by user; the cart row itself is created on first use.
type CartRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	RemoveProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.CartItem], error)
	AllItems(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
	Summary(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

const cartItemSelect = `
	SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
	       p.name, p.slug, p.price, p.stock, p.is_active,
	       COALESCE((SELECT pi.url FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.position, pi.created_at LIMIT 1), ''),
	       ci.created_at, ci.updated_at
	FROM cart_items ci
	JOIN carts c ON c.id = ci.cart_id
	JOIN products p ON p.id = ci.product_id`

func scanCartItem(row rowScanner) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	err := row.Scan(
		&item.ID,
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&item.ProductName,
		&item.ProductSlug,
		&item.UnitPrice,
		&item.Stock,
		&item.IsActive,
		&item.ImageURL,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func cartItemKey(i *domain.CartItem) pagination.Cursor {
	return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
}

func getOrCreateCart(ctx context.Context, q querier, userID uuid.UUID) (*domain.Cart, error) {
	now := time.Now().UTC()
	_, err := q.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	cart := &domain.Cart{}
	err = q.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1
	`, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	return cart, nil
}

// lockProductStock takes a share lock so stock cannot move while a cart line
// is sized against it.
func lockProductStock(ctx context.Context, q querier, productID uuid.UUID) (stock int, active bool, err error) {
	err = q.QueryRowContext(ctx, `SELECT stock, is_active FROM products WHERE id = $1 FOR SHARE`, productID).
		Scan(&stock, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, ErrProductNotFound
		}
		return 0, false, fmt.Errorf("failed to lock product: %w", err)
	}
	return stock, active, nil
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return getOrCreateCart(ctx, r.db, userID)
}

// AddItem adds quantity to the product's line, capping the line at the
// available stock.
func (r *cartRepository) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	var itemID uuid.UUID

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		cart, err := getOrCreateCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		stock, active, err := lockProductStock(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !active || stock == 0 {
			return ErrProductUnavailable
		}

		var existing int
		err = tx.QueryRowContext(ctx, `
			SELECT quantity FROM cart_items WHERE cart_id = $1 AND product_id = $2 FOR UPDATE
		`, cart.ID, productID).Scan(&existing)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read cart line: %w", err)
		}

		next := min(existing+quantity, stock)
		now := time.Now().UTC()

		err = tx.QueryRowContext(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
			RETURNING id
		`, uuid.New(), cart.ID, productID, next, now).Scan(&itemID)
		if err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.findItem(ctx, itemID)
}

// SetQuantity overwrites a line's quantity. Zero or less removes the line and
// returns a nil item.
func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, r.RemoveItem(ctx, userID, productID)
	}

	var itemID uuid.UUID
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stock, active, err := lockProductStock(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !active {
			return ErrProductUnavailable
		}
		if quantity > stock {
			return ErrInsufficientStock
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE cart_items ci
			SET quantity = $3, updated_at = $4
			FROM carts c
			WHERE c.id = ci.cart_id AND c.user_id = $1 AND ci.product_id = $2
			RETURNING ci.id
		`, userID, productID, quantity, time.Now().UTC()).Scan(&itemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCartItemNotFound
			}
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.findItem(ctx, itemID)
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE c.id = ci.cart_id AND c.user_id = $1 AND ci.product_id = $2
	`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return ensureAffected(result, ErrCartItemNotFound)
}

// RemoveProducts drops the given lines, used once they have been ordered.
func (r *cartRepository) RemoveProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}

	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}

	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE c.id = ci.cart_id AND c.user_id = $1 AND ci.product_id = ANY($2::uuid[])
	`, userID, ids)
	if err != nil {
		return fmt.Errorf("failed to remove ordered cart items: %w", err)
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE c.id = ci.cart_id AND c.user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ListItems returns a keyset page of cart lines, most recently added first.
func (r *cartRepository) ListItems(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.CartItem], error) {
	args := []interface{}{userID}
	where := "WHERE c.user_id = $1"

	if params.Cursor != nil {
		args = append(args, params.Cursor.CreatedAt, params.Cursor.ID)
		where += " AND (ci.created_at, ci.id) < ($2, $3)"
	}

	args = append(args, params.Limit+1)
	query := fmt.Sprintf(`%s
		%s
		ORDER BY ci.created_at DESC, ci.id DESC
		LIMIT $%d
	`, cartItemSelect, where, len(args))

	items, err := r.queryItems(ctx, query, args...)
	if err != nil {
		return pagination.Page[*domain.CartItem]{}, err
	}

	return pagination.NewPage(items, params.Limit, cartItemKey), nil
}

func (r *cartRepository) AllItems(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	query := cartItemSelect + ` WHERE c.user_id = $1 ORDER BY ci.created_at DESC, ci.id DESC`
	return r.queryItems(ctx, query, userID)
}

func (r *cartRepository) Summary(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error) {
	var summary domain.CartSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(ci.id), COALESCE(SUM(ci.quantity), 0), COALESCE(SUM(ci.quantity * p.price), 0)
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id = $1
	`, userID).Scan(&summary.Lines, &summary.Quantity, &summary.Subtotal)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("failed to summarise cart: %w", err)
	}
	return summary, nil
}

func (r *cartRepository) findItem(ctx context.Context, id uuid.UUID) (*domain.CartItem, error) {
	item, err := scanCartItem(r.db.QueryRowContext(ctx, cartItemSelect+` WHERE ci.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}
	return item, nil
}

func (r *cartRepository) queryItems(ctx context.Context, query string, args ...interface{}) ([]*domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}
