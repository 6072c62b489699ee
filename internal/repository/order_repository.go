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
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNumberTaken  = errors.New("order number already exists")
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrDuplicateNotification marks a gateway notification already applied.
	ErrDuplicateNotification = errors.New("payment notification already recorded")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.Order], error)
	List(ctx context.Context, filter domain.OrderFilter, page pagination.Offset) ([]*domain.Order, int, error)
	AttachPayment(ctx context.Context, id uuid.UUID, token, redirectURL string) error
	Transition(ctx context.Context, id uuid.UUID, next domain.OrderStatus, paymentType string) (*domain.TransitionResult, error)
	ApplyNotification(ctx context.Context, event *domain.PaymentEvent, next domain.OrderStatus, paymentType string) (*domain.TransitionResult, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	id, order_number, user_id, status, total,
	ship_recipient, ship_phone, ship_line1, ship_line2, ship_city, ship_province, ship_postal_code,
	payment_token, payment_url, payment_type, paid_at, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var paidAt sql.NullTime
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.Total,
		&order.Shipping.Recipient,
		&order.Shipping.Phone,
		&order.Shipping.Line1,
		&order.Shipping.Line2,
		&order.Shipping.City,
		&order.Shipping.Province,
		&order.Shipping.PostalCode,
		&order.PaymentToken,
		&order.PaymentURL,
		&order.PaymentType,
		&paidAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}
	return order, err
}

func orderKey(o *domain.Order) pagination.Cursor {
	return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
}

// Create stores the order header and its item snapshot in one transaction.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (
				id, order_number, user_id, status, total,
				ship_recipient, ship_phone, ship_line1, ship_line2, ship_city, ship_province, ship_postal_code,
				created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			order.ID,
			order.OrderNumber,
			order.UserID,
			order.Status,
			order.Total,
			order.Shipping.Recipient,
			order.Shipping.Phone,
			order.Shipping.Line1,
			order.Shipping.Line2,
			order.Shipping.City,
			order.Shipping.Province,
			order.Shipping.PostalCode,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, "orders_order_number_key") {
				return ErrOrderNumberTaken
			}
			if isForeignKeyViolation(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity, subtotal)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, item.ID, item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.Subtotal)
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		return nil
	})
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, "id", id)
}

// FindByNumber retrieves an order with its items by its public order number
func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(ctx, "order_number", number)
}

func (r *orderRepository) findOne(ctx context.Context, column string, value any) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + ` = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by %s: %w", column, err)
	}

	if err := loadItems(ctx, r.db, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByUser returns a keyset page of the user's orders, newest first, with items.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.Order], error) {
	args := []interface{}{userID}
	where := "WHERE user_id = $1"

	if params.Cursor != nil {
		args = append(args, params.Cursor.CreatedAt, params.Cursor.ID)
		where += " AND (created_at, id) < ($2, $3)"
	}

	args = append(args, params.Limit+1)
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, orderColumns, where, len(args))

	orders, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return pagination.Page[*domain.Order]{}, err
	}

	page := pagination.NewPage(orders, params.Limit, orderKey)
	if err := loadItems(ctx, r.db, page.Items); err != nil {
		return pagination.Page[*domain.Order]{}, err
	}

	return page, nil
}

// List is the admin order table: optional filters, offset pages, total count.
func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter, page pagination.Offset) ([]*domain.Order, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}

	where := whereSQL(conditions)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM orders
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.PageSize, page.Skip())

	orders, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) AttachPayment(ctx context.Context, id uuid.UUID, token, redirectURL string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_token = $2, payment_url = $3, updated_at = $4 WHERE id = $1
	`, id, token, redirectURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to attach payment: %w", err)
	}

	return ensureAffected(result, ErrOrderNotFound)
}

func (r *orderRepository) Transition(ctx context.Context, id uuid.UUID, next domain.OrderStatus, paymentType string) (*domain.TransitionResult, error) {
	result := &domain.TransitionResult{}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return applyTransition(ctx, tx, "id", id, next, paymentType, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyNotification records a gateway notification and moves the order it
// names to next in one transaction, so a notification is never stored
// without its effect. An empty next only records it.
//
// A (transaction, status) pair seen before returns ErrDuplicateNotification
// and changes nothing. A notification the state machine refuses is still
// recorded; it returns the unchanged order together with an error wrapping
// ErrInvalidTransition.
func (r *orderRepository) ApplyNotification(ctx context.Context, event *domain.PaymentEvent, next domain.OrderStatus, paymentType string) (*domain.TransitionResult, error) {
	result := &domain.TransitionResult{}
	var refused error

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		inserted, err := insertPaymentEvent(ctx, tx, event)
		if err != nil {
			return err
		}
		if !inserted {
			return ErrDuplicateNotification
		}

		err = applyTransition(ctx, tx, "order_number", event.OrderNumber, next, paymentType, result)
		if errors.Is(err, ErrInvalidTransition) {
			refused = err
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, refused
}

// applyTransition locks the order row, applies the status change and moves
// stock when the order starts or stops holding it. Re-applying the current
// status, or an empty next, is a no-op.
func applyTransition(ctx context.Context, tx *sql.Tx, column string, value any, next domain.OrderStatus, paymentType string, result *domain.TransitionResult) error {
	order, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1 FOR UPDATE`, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to lock order: %w", err)
	}
	if err := loadItems(ctx, tx, []*domain.Order{order}); err != nil {
		return err
	}

	result.Order = order
	result.Previous = order.Status

	if next == "" || order.Status == next {
		return nil
	}
	if !order.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, next)
	}

	switch {
	case next.HoldsStock() && !order.Status.HoldsStock():
		shortages, err := takeStock(ctx, tx, order.Items)
		if err != nil {
			return err
		}
		result.Shortages = shortages
	case order.Status.HoldsStock() && !next.HoldsStock():
		if err := restoreStock(ctx, tx, order.Items); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	if paymentType == "" {
		paymentType = order.PaymentType
	}

	var paidAt sql.NullTime
	err = tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2,
		    payment_type = $3,
		    paid_at = CASE WHEN $2 = 'paid' THEN COALESCE(paid_at, $4) ELSE paid_at END,
		    updated_at = $4
		WHERE id = $1
		RETURNING paid_at
	`, order.ID, string(next), paymentType, now).Scan(&paidAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = next
	order.PaymentType = paymentType
	order.UpdatedAt = now
	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}
	result.Changed = true
	return nil
}

// takeStock decrements stock for each line, clamping at zero, and remembers
// on the line how much it took. Lines whose product no longer exists are
// skipped.
func takeStock(ctx context.Context, tx *sql.Tx, items []domain.OrderItem) ([]domain.StockShortage, error) {
	var shortages []domain.StockShortage

	for i := range items {
		item := &items[i]
		if item.ProductID == nil {
			continue
		}

		var stock int
		err := tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, *item.ProductID).Scan(&stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("failed to lock product stock: %w", err)
		}

		take := min(item.Quantity, stock)
		if take < item.Quantity {
			shortages = append(shortages, domain.StockShortage{
				ProductID: *item.ProductID,
				Requested: item.Quantity,
				Available: stock,
			})
		}
		if take == 0 {
			continue
		}

		if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1`, *item.ProductID, take); err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE order_items SET stock_taken = $2 WHERE id = $1`, item.ID, take); err != nil {
			return nil, fmt.Errorf("failed to record stock taken: %w", err)
		}
		item.StockTaken = take
	}

	return shortages, nil
}

// restoreStock gives back exactly what takeStock removed.
func restoreStock(ctx context.Context, tx *sql.Tx, items []domain.OrderItem) error {
	for i := range items {
		item := &items[i]
		if item.ProductID == nil || item.StockTaken == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, *item.ProductID, item.StockTaken); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE order_items SET stock_taken = 0 WHERE id = $1`, item.ID); err != nil {
			return fmt.Errorf("failed to clear stock taken: %w", err)
		}
		item.StockTaken = 0
	}
	return nil
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// loadItems fills Items for every order with a single query.
func loadItems(ctx context.Context, q querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		o.Items = []domain.OrderItem{}
		byID[o.ID] = o
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, subtotal, stock_taken
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY product_name ASC, id ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		var productID uuid.NullUUID
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.Subtotal, &item.StockTaken); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if productID.Valid {
			id := productID.UUID
			item.ProductID = &id
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}
