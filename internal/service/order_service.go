package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/mail"
	"storefront/internal/pagination"
	"storefront/internal/payment"
	"storefront/internal/realtime"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const orderNumberAttempts = 3

var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrNoShippingAddress  = errors.New("no shipping address")
	ErrItemUnavailable    = errors.New("cart item is out of stock or unavailable")
	ErrPaymentUnavailable = errors.New("payment could not be started")
	ErrOrderNotCancelable = errors.New("only pending orders can be cancelled")
)

// CheckoutResult is the pending order plus where to send the customer to pay.
type CheckoutResult struct {
	Order       *domain.Order `json:"order"`
	Token       string        `json:"token"`
	RedirectURL string        `json:"redirect_url"`
}

type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (*CheckoutResult, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.Order], error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)

	AdminListOrders(ctx context.Context, filter domain.OrderFilter, page pagination.Offset) ([]*domain.Order, int, error)
	AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	addresses repository.AddressRepository
	users     repository.UserRepository
	gateway   payment.Gateway
	notifier  *orderNotifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	addresses repository.AddressRepository,
	users repository.UserRepository,
	gateway payment.Gateway,
	mailer mail.Mailer,
	feed realtime.Broadcaster,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orders:    orders,
		carts:     carts,
		addresses: addresses,
		users:     users,
		gateway:   gateway,
		notifier:  &orderNotifier{users: users, mailer: mailer, feed: feed, logger: logger},
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout turns the cart into a pending order and opens a payment session
// for it. Stock is only taken once the payment settles.
func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (*CheckoutResult, error) {
	address, err := s.shippingAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.AllItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    domain.OrderStatusPending,
		Shipping:  address.Snapshot(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if !item.IsActive || item.Quantity > item.Stock {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.ProductName)
		}
		productID := item.ProductID
		order.Items = append(order.Items, domain.OrderItem{
			ID:          uuid.New(),
			ProductID:   &productID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal(),
		})
		productIDs = append(productIDs, productID)
	}
	order.Total = order.ItemsTotal()

	if err := s.createWithNumber(ctx, order); err != nil {
		return nil, err
	}

	tx, err := s.gateway.CreateTransaction(ctx, transactionRequest(order, user))
	if err != nil {
		s.logger.Error("Payment gateway failed, marking order failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		if _, terr := s.orders.Transition(ctx, order.ID, domain.OrderStatusFailed, ""); terr != nil {
			s.logger.Error("Failed to mark order failed",
				zap.String("order_number", order.OrderNumber),
				zap.Error(terr),
			)
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}

	if err := s.orders.AttachPayment(ctx, order.ID, tx.Token, tx.RedirectURL); err != nil {
		return nil, fmt.Errorf("failed to store payment token: %w", err)
	}
	order.PaymentToken = tx.Token
	order.PaymentURL = tx.RedirectURL

	if err := s.carts.RemoveProducts(ctx, userID, productIDs); err != nil {
		// the order is already open; a stale cart is only cosmetic
		s.logger.Error("Failed to clear ordered cart lines",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.Int64("total", order.Total),
	)

	return &CheckoutResult{Order: order, Token: tx.Token, RedirectURL: tx.RedirectURL}, nil
}

func (s *orderService) shippingAddress(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (*domain.Address, error) {
	var (
		address *domain.Address
		err     error
	)
	if addressID != nil {
		address, err = s.addresses.FindByID(ctx, userID, *addressID)
	} else {
		address, err = s.addresses.FindMain(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			if addressID != nil {
				return nil, err
			}
			return nil, ErrNoShippingAddress
		}
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	return address, nil
}

func (s *orderService) createWithNumber(ctx context.Context, order *domain.Order) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = NewOrderNumber(order.CreatedAt)

		err := s.orders.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrOrderNumberTaken) {
			return fmt.Errorf("failed to create order: %w", err)
		}
	}
	return repository.ErrOrderNumberTaken
}

func transactionRequest(order *domain.Order, user *domain.User) payment.TransactionRequest {
	req := payment.TransactionRequest{
		OrderNumber: order.OrderNumber,
		GrossAmount: order.Total,
		Customer: payment.Customer{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Phone:     order.Shipping.Phone,
		},
	}
	for _, item := range order.Items {
		id := item.ID.String()
		if item.ProductID != nil {
			id = item.ProductID.String()
		}
		req.Items = append(req.Items, payment.Item{
			ID:       id,
			Name:     item.ProductName,
			Price:    item.UnitPrice,
			Quantity: item.Quantity,
		})
	}
	return req
}

// NewOrderNumber formats ORD-YYYYMMDD-XXXXXXXX with a random base32 suffix.
func NewOrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", t.UTC().Format("20060102"), rand.Text()[:8])
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[*domain.Order], error) {
	page, err := s.orders.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[*domain.Order]{}, fmt.Errorf("failed to list orders: %w", err)
	}
	return page, nil
}

// GetOrder hides other customers' orders behind ErrOrderNotFound.
func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, ErrOrderNotCancelable
	}

	result, err := s.orders.Transition(ctx, orderID, domain.OrderStatusCancelled, "")
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, ErrOrderNotCancelable
		}
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	s.notifier.statusChanged(ctx, result)
	return result.Order, nil
}

func (s *orderService) AdminListOrders(ctx context.Context, filter domain.OrderFilter, page pagination.Offset) ([]*domain.Order, int, error) {
	orders, total, err := s.orders.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *orderService) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	result, err := s.orders.Transition(ctx, orderID, status, "")
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_number", result.Order.OrderNumber),
		zap.String("from", string(result.Previous)),
		zap.String("to", string(result.Order.Status)),
	)
	s.notifier.statusChanged(ctx, result)
	return result.Order, nil
}
