package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is a stored gateway notification.
type PaymentEvent struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	OrderNumber       string          `json:"order_number" db:"order_number"`
	TransactionID     string          `json:"transaction_id" db:"transaction_id"`
	TransactionStatus string          `json:"transaction_status" db:"transaction_status"`
	FraudStatus       string          `json:"fraud_status" db:"fraud_status"`
	StatusCode        string          `json:"status_code" db:"status_code"`
	GrossAmount       string          `json:"gross_amount" db:"gross_amount"`
	Payload           json.RawMessage `json:"payload" db:"payload"`
	ReceivedAt        time.Time       `json:"received_at" db:"received_at"`
}
