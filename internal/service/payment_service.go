package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/mail"
	"storefront/internal/payment"
	"storefront/internal/realtime"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrAmountMismatch   = errors.New("gross amount does not match order total")
)

// NotificationOutcome tells the caller what a notification did.
type NotificationOutcome string

const (
	OutcomeApplied   NotificationOutcome = "applied"
	OutcomeUnchanged NotificationOutcome = "unchanged"
	OutcomeDuplicate NotificationOutcome = "duplicate"
	OutcomeIgnored   NotificationOutcome = "ignored"
)

type NotificationResult struct {
	Outcome NotificationOutcome
	Order   *domain.Order
}

// PaymentService applies gateway notifications to orders.
type PaymentService interface {
	HandleNotification(ctx context.Context, n payment.Notification, raw []byte) (*NotificationResult, error)
	// History lists the notifications recorded for an order, oldest first.
	History(ctx context.Context, orderID uuid.UUID) ([]*domain.PaymentEvent, error)
}

type paymentService struct {
	orders          repository.OrderRepository
	events          repository.PaymentEventRepository
	notifier        *orderNotifier
	serverKey       string
	verifySignature bool
	logger          *zap.Logger
}

func NewPaymentService(
	orders repository.OrderRepository,
	events repository.PaymentEventRepository,
	users repository.UserRepository,
	mailer mail.Mailer,
	feed realtime.Broadcaster,
	cfg config.PaymentConfig,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		orders:          orders,
		events:          events,
		notifier:        &orderNotifier{users: users, mailer: mailer, feed: feed, logger: logger},
		serverKey:       cfg.ServerKey,
		verifySignature: cfg.VerifySignature,
		logger:          logger,
	}
}

// HandleNotification verifies the notification, then records it and moves
// the order along in one transaction. A redelivered (transaction, status)
// pair is acknowledged without touching the order again; a notification
// whose transaction failed was never recorded, so its redelivery is applied.
func (s *paymentService) HandleNotification(ctx context.Context, n payment.Notification, raw []byte) (*NotificationResult, error) {
	log := s.logger.With(
		zap.String("order_number", n.OrderID),
		zap.String("transaction_id", n.TransactionID),
		zap.String("transaction_status", n.TransactionStatus),
	)

	if s.verifySignature && !n.VerifySignature(s.serverKey) {
		log.Warn("Rejected notification with bad signature")
		return nil, ErrInvalidSignature
	}

	amount, err := payment.ParseGrossAmount(n.GrossAmount)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByNumber(ctx, n.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if amount != order.Total {
		log.Warn("Notification amount mismatch",
			zap.Int64("gross_amount", amount),
			zap.Int64("order_total", order.Total),
		)
		return nil, ErrAmountMismatch
	}

	if !json.Valid(raw) {
		raw, _ = json.Marshal(n)
	}
	event := &domain.PaymentEvent{
		ID:                uuid.New(),
		OrderNumber:       n.OrderID,
		TransactionID:     n.TransactionID,
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
		StatusCode:        n.StatusCode,
		GrossAmount:       n.GrossAmount,
		Payload:           raw,
		ReceivedAt:        time.Now().UTC(),
	}

	status, mapped := payment.MapStatus(n.TransactionStatus, n.FraudStatus)
	if !mapped {
		status = ""
	}

	result, err := s.orders.ApplyNotification(ctx, event, status, n.PaymentType)
	switch {
	case errors.Is(err, repository.ErrDuplicateNotification):
		log.Info("Duplicate notification acknowledged")
		return &NotificationResult{Outcome: OutcomeDuplicate, Order: order}, nil
	case errors.Is(err, repository.ErrInvalidTransition):
		s.refused(log, result.Order, status)
		return &NotificationResult{Outcome: OutcomeIgnored, Order: result.Order}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to apply notification: %w", err)
	}

	if !mapped {
		log.Info("Ignoring notification status")
		return &NotificationResult{Outcome: OutcomeIgnored, Order: result.Order}, nil
	}
	if !result.Changed {
		return &NotificationResult{Outcome: OutcomeUnchanged, Order: result.Order}, nil
	}

	log.Info("Order status updated from notification",
		zap.String("from", string(result.Previous)),
		zap.String("to", string(result.Order.Status)),
	)
	// committed; the gateway hanging up must not cost the customer their mail
	s.notifier.statusChanged(context.WithoutCancel(ctx), result)

	return &NotificationResult{Outcome: OutcomeApplied, Order: result.Order}, nil
}

// refused handles a notification the order state machine would not take.
// Money arriving for an order that is already closed needs a human: the
// customer paid and nothing will ship.
func (s *paymentService) refused(log *zap.Logger, order *domain.Order, target domain.OrderStatus) {
	if target == domain.OrderStatusPaid && order.Status.Closed() {
		log.Error("Payment captured for a closed order",
			zap.Bool("paid_after_cancel", true),
			zap.String("current_status", string(order.Status)),
			zap.Int64("order_total", order.Total),
		)
		s.notifier.broadcast(realtime.Event{Type: "order.paid_after_cancel", Data: order})
		return
	}

	log.Warn("Ignoring out of order notification",
		zap.String("current_status", string(order.Status)),
		zap.String("target_status", string(target)),
	)
}

func (s *paymentService) History(ctx context.Context, orderID uuid.UUID) ([]*domain.PaymentEvent, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	events, err := s.events.ListByOrder(ctx, order.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment events: %w", err)
	}
	return events, nil
}
