package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"
)

// PaymentEventRepository reads stored gateway notifications. They are written
// by OrderRepository.ApplyNotification together with their effect on the
// order; a (transaction_id, transaction_status) pair is only stored once.
type PaymentEventRepository interface {
	ListByOrder(ctx context.Context, orderNumber string) ([]*domain.PaymentEvent, error)
}

type paymentEventRepository struct {
	db *sql.DB
}

// NewPaymentEventRepository creates a new instance of PaymentEventRepository
func NewPaymentEventRepository(db *sql.DB) PaymentEventRepository {
	return &paymentEventRepository{db: db}
}

// insertPaymentEvent reports whether the event was new.
func insertPaymentEvent(ctx context.Context, q querier, event *domain.PaymentEvent) (bool, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO payment_events (
			id, order_number, transaction_id, transaction_status, fraud_status,
			status_code, gross_amount, payload, received_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (transaction_id, transaction_status) DO NOTHING
	`,
		event.ID,
		event.OrderNumber,
		event.TransactionID,
		event.TransactionStatus,
		event.FraudStatus,
		event.StatusCode,
		event.GrossAmount,
		[]byte(event.Payload),
		event.ReceivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record payment event: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *paymentEventRepository) ListByOrder(ctx context.Context, orderNumber string) ([]*domain.PaymentEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_number, transaction_id, transaction_status, fraud_status,
		       status_code, gross_amount, payload, received_at
		FROM payment_events
		WHERE order_number = $1
		ORDER BY received_at ASC
	`, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment events: %w", err)
	}
	defer rows.Close()

	events := []*domain.PaymentEvent{}
	for rows.Next() {
		e := &domain.PaymentEvent{}
		var payload []byte
		if err := rows.Scan(
			&e.ID,
			&e.OrderNumber,
			&e.TransactionID,
			&e.TransactionStatus,
			&e.FraudStatus,
			&e.StatusCode,
			&e.GrossAmount,
			&payload,
			&e.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment event: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment events: %w", err)
	}

	return events, nil
}
