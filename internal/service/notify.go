package service

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/mail"
	"storefront/internal/realtime"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

const mailTimeout = 30 * time.Second

// sendAsync delivers msg off the request path; failures are logged only.
func sendAsync(mailer mail.Mailer, logger *zap.Logger, msg mail.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := mailer.Send(ctx, msg); err != nil {
			logger.Error("Failed to send mail",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
		}
	}()
}

// orderNotifier fans a status change out to the customer and the admin feed.
type orderNotifier struct {
	users  repository.UserRepository
	mailer mail.Mailer
	feed   realtime.Broadcaster
	logger *zap.Logger
}

func (n *orderNotifier) broadcast(event realtime.Event) {
	if n.feed != nil {
		n.feed.Broadcast(event)
	}
}

func (n *orderNotifier) statusChanged(ctx context.Context, result *domain.TransitionResult) {
	if result == nil || !result.Changed {
		return
	}
	order := result.Order

	for _, s := range result.Shortages {
		n.logger.Warn("Order oversold, stock clamped at zero",
			zap.String("order_number", order.OrderNumber),
			zap.String("product_id", s.ProductID.String()),
			zap.Int("requested", s.Requested),
			zap.Int("available", s.Available),
		)
	}

	n.broadcast(realtime.Event{Type: "order." + string(order.Status), Data: order})

	if order.Status != domain.OrderStatusPaid {
		return
	}

	user, err := n.users.FindByID(ctx, order.UserID)
	if err != nil {
		n.logger.Error("Failed to load customer for confirmation mail",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return
	}

	msg, err := mail.OrderConfirmationMessage(user, order)
	if err != nil {
		n.logger.Error("Failed to render confirmation mail", zap.Error(err))
		return
	}
	sendAsync(n.mailer, n.logger, msg)
}
