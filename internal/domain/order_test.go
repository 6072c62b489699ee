package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusExpired, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusPaid, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusTerminalAndStock(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusFailed, OrderStatusCancelled, OrderStatusExpired, OrderStatusRefunded} {
		assert.True(t, s.IsTerminal(), string(s))
		assert.False(t, s.HoldsStock(), string(s))
	}
	assert.False(t, OrderStatusPending.HoldsStock())
	assert.True(t, OrderStatusShipped.HoldsStock())

	for _, s := range []OrderStatus{OrderStatusFailed, OrderStatusCancelled, OrderStatusExpired} {
		assert.True(t, s.Closed(), string(s))
	}
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusDelivered, OrderStatusRefunded} {
		assert.False(t, s.Closed(), string(s))
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus("shipped")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusShipped, status)

	_, ok = ParseOrderStatus("lost")
	assert.False(t, ok)
}

func TestOrderItemsTotal(t *testing.T) {
	o := Order{Items: []OrderItem{{Subtotal: 1500}, {Subtotal: 2500}}}
	assert.Equal(t, int64(4000), o.ItemsTotal())
}

func TestProductAvailable(t *testing.T) {
	p := Product{IsActive: true, Stock: 3}
	assert.True(t, p.Available(3))
	assert.False(t, p.Available(4))
	assert.False(t, p.Available(0))

	p.IsActive = false
	assert.False(t, p.Available(1))
}
