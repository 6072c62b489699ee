package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // awaiting payment
	OrderStatusPaid      OrderStatus = "paid"      // settled, stock taken
	OrderStatusFailed    OrderStatus = "failed"    // gateway denied or unreachable
	OrderStatusCancelled OrderStatus = "cancelled" // by customer, admin or gateway
	OrderStatusExpired   OrderStatus = "expired"   // payment window elapsed
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusRefunded  OrderStatus = "refunded"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled, OrderStatusExpired},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusRefunded, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {OrderStatusRefunded},
}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled,
		OrderStatusExpired, OrderStatusShipped, OrderStatusDelivered, OrderStatusRefunded:
		return status, true
	}
	return "", false
}

// CanTransitionTo reports whether s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal is true once no further transition exists.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// Closed reports whether the order ended without being fulfilled.
func (s OrderStatus) Closed() bool {
	return s == OrderStatusFailed || s == OrderStatusCancelled || s == OrderStatusExpired
}

// HoldsStock reports whether stock has been taken for an order in status s.
func (s OrderStatus) HoldsStock() bool {
	return s == OrderStatusPaid || s == OrderStatusShipped || s == OrderStatusDelivered
}

type Order struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderNumber  string          `json:"order_number" db:"order_number"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	Status       OrderStatus     `json:"status" db:"status"`
	Total        int64           `json:"total" db:"total"`
	Shipping     ShippingAddress `json:"shipping_address"`
	PaymentToken string          `json:"payment_token,omitempty" db:"payment_token"`
	PaymentURL   string          `json:"payment_url,omitempty" db:"payment_url"`
	PaymentType  string          `json:"payment_type,omitempty" db:"payment_type"`
	PaidAt       *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	Items        []OrderItem     `json:"items,omitempty"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ItemsTotal sums the line subtotals.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal
	}
	return total
}

type OrderItem struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OrderID     uuid.UUID  `json:"order_id" db:"order_id"`
	ProductID   *uuid.UUID `json:"product_id,omitempty" db:"product_id"`
	ProductName string     `json:"product_name" db:"product_name"`
	UnitPrice   int64      `json:"unit_price" db:"unit_price"`
	Quantity    int        `json:"quantity" db:"quantity"`
	Subtotal    int64      `json:"subtotal" db:"subtotal"`
	// StockTaken is what the paid transition actually removed from stock,
	// less than Quantity when the product was oversold.
	StockTaken  int        `json:"-" db:"stock_taken"`
}

// OrderFilter is used by the admin order table.
type OrderFilter struct {
	Status *OrderStatus
	UserID *uuid.UUID
}

// StockShortage records a product that could not cover a paid order in full.
type StockShortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// TransitionResult describes the effect of applying a status change.
type TransitionResult struct {
	Order     *Order
	Previous  OrderStatus
	Changed   bool
	Shortages []StockShortage
}
