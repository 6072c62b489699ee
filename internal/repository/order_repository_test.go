package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, userID uuid.UUID, lines map[*domain.Product]int) *domain.Order {
	t.Helper()
	now := time.Now().UTC()
	order := &domain.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-TEST-" + uuid.NewString()[:8],
		UserID:      userID,
		Status:      domain.OrderStatusPending,
		Shipping: domain.ShippingAddress{
			Recipient:  "Jane Doe",
			Phone:      "0800000000",
			Line1:      "1 Main St",
			City:       "Bandung",
			Province:   "West Java",
			PostalCode: "40111",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for p, qty := range lines {
		id := p.ID
		order.Items = append(order.Items, domain.OrderItem{
			ID:          uuid.New(),
			ProductID:   &id,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    qty,
			Subtotal:    p.Price * int64(qty),
		})
	}
	order.Total = order.ItemsTotal()

	require.NoError(t, NewOrderRepository(testDB).Create(context.Background(), order))
	return order
}

func newTestEvent(order *domain.Order, status string) *domain.PaymentEvent {
	return &domain.PaymentEvent{
		ID:                uuid.New(),
		OrderNumber:       order.OrderNumber,
		TransactionID:     uuid.NewString(),
		TransactionStatus: status,
		StatusCode:        "200",
		GrossAmount:       "0.00",
		Payload:           json.RawMessage(`{"transaction_status":"` + status + `"}`),
		ReceivedAt:        time.Now().UTC(),
	}
}

func TestOrderRepository_PaidTakesStockOnce(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := seedUser(t)
	category := seedCategory(t)
	a := seedProduct(t, category.ID, 1000, 5)
	b := seedProduct(t, category.ID, 2000, 5)

	order := newTestOrder(t, user.ID, map[*domain.Product]int{a: 2, b: 1})

	result, err := repo.ApplyNotification(ctx, newTestEvent(order, "settlement"), domain.OrderStatusPaid, "bank_transfer")
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, domain.OrderStatusPending, result.Previous)
	assert.Empty(t, result.Shortages)
	assert.NotNil(t, result.Order.PaidAt)
	assert.Equal(t, "bank_transfer", result.Order.PaymentType)

	assert.Equal(t, 3, productStock(t, a.ID))
	assert.Equal(t, 4, productStock(t, b.ID))

	// a second transaction settling the same order
	result, err = repo.ApplyNotification(ctx, newTestEvent(order, "settlement"), domain.OrderStatusPaid, "bank_transfer")
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, 3, productStock(t, a.ID))
}

func TestOrderRepository_StockClampedAtZero(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := seedUser(t)
	product := seedProduct(t, seedCategory(t).ID, 1000, 5)

	order := newTestOrder(t, user.ID, map[*domain.Product]int{product: 4})
	require.NoError(t, NewProductRepository(testDB).UpdateStock(ctx, product.ID, 1))

	result, err := repo.Transition(ctx, order.ID, domain.OrderStatusPaid, "")
	require.NoError(t, err)
	require.Len(t, result.Shortages, 1)
	assert.Equal(t, domain.StockShortage{ProductID: product.ID, Requested: 4, Available: 1}, result.Shortages[0])
	assert.Equal(t, 0, productStock(t, product.ID))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 1, found.Items[0].StockTaken)

	// only the unit actually taken comes back
	_, err = repo.Transition(ctx, order.ID, domain.OrderStatusRefunded, "")
	require.NoError(t, err)
	assert.Equal(t, 1, productStock(t, product.ID))

	found, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Zero(t, found.Items[0].StockTaken)
}

func TestOrderRepository_RefundRestoresStock(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := seedUser(t)
	product := seedProduct(t, seedCategory(t).ID, 1000, 5)

	order := newTestOrder(t, user.ID, map[*domain.Product]int{product: 2})

	_, err := repo.Transition(ctx, order.ID, domain.OrderStatusPaid, "")
	require.NoError(t, err)
	_, err = repo.Transition(ctx, order.ID, domain.OrderStatusShipped, "")
	require.NoError(t, err)
	assert.Equal(t, 3, productStock(t, product.ID))

	_, err = repo.Transition(ctx, order.ID, domain.OrderStatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = repo.Transition(ctx, order.ID, domain.OrderStatusDelivered, "")
	require.NoError(t, err)
	_, err = repo.Transition(ctx, order.ID, domain.OrderStatusRefunded, "")
	require.NoError(t, err)
	assert.Equal(t, 5, productStock(t, product.ID))
}

func TestOrderRepository_FailedDoesNotTouchStock(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := seedUser(t)
	product := seedProduct(t, seedCategory(t).ID, 1000, 5)

	order := newTestOrder(t, user.ID, map[*domain.Product]int{product: 2})

	_, err := repo.Transition(ctx, order.ID, domain.OrderStatusFailed, "")
	require.NoError(t, err)
	assert.Equal(t, 5, productStock(t, product.ID))

	_, err = repo.Transition(ctx, order.ID, domain.OrderStatusPaid, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = repo.Transition(ctx, uuid.New(), domain.OrderStatusPaid, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderRepository_ListingsAndPayment(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := seedUser(t)
	product := seedProduct(t, seedCategory(t).ID, 1500, 50)

	var orders []*domain.Order
	for i := 0; i < 3; i++ {
		orders = append(orders, newTestOrder(t, user.ID, map[*domain.Product]int{product: 1}))
	}

	require.NoError(t, repo.AttachPayment(ctx, orders[0].ID, "snap-token", "https://pay.example/redirect"))
	found, err := repo.FindByNumber(ctx, orders[0].OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "snap-token", found.PaymentToken)
	require.Len(t, found.Items, 1)
	assert.Equal(t, int64(1500), found.Items[0].Subtotal)

	page, err := repo.ListByUser(ctx, user.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)
	assert.Len(t, page.Items[0].Items, 1)

	paid := domain.OrderStatusPaid
	_, err = repo.Transition(ctx, orders[1].ID, paid, "")
	require.NoError(t, err)

	list, total, err := repo.List(ctx, domain.OrderFilter{Status: &paid, UserID: &user.ID}, pagination.NewOffset(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, orders[1].ID, list[0].ID)

	// a deleted product keeps its order line
	require.NoError(t, NewProductRepository(testDB).Delete(ctx, product.ID))
	found, err = repo.FindByID(ctx, orders[2].ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Nil(t, found.Items[0].ProductID)
}
