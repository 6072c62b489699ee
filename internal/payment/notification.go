package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"storefront/internal/domain"
)

var ErrInvalidAmount = errors.New("invalid gross amount")

// Notification is the subset of the provider's HTTP notification the
// storefront acts on.
type Notification struct {
	OrderID           string `json:"order_id" validate:"required"`
	TransactionID     string `json:"transaction_id" validate:"required"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
	TransactionTime   string `json:"transaction_time"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount" validate:"required"`
	PaymentType       string `json:"payment_type"`
	SignatureKey      string `json:"signature_key"`
}

// Signature is the hex SHA-512 of order id, status code, gross amount and
// server key, concatenated in that order.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature compares in constant time.
func (n Notification) VerifySignature(serverKey string) bool {
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	got := strings.ToLower(n.SignatureKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// MapStatus translates a transaction status into the order status it implies.
// ok is false for statuses the storefront ignores.
func MapStatus(transactionStatus, fraudStatus string) (status domain.OrderStatus, ok bool) {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "", "accept":
			return domain.OrderStatusPaid, true
		case "challenge":
			return domain.OrderStatusPending, true
		}
		return "", false
	case "settlement":
		return domain.OrderStatusPaid, true
	case "pending":
		return domain.OrderStatusPending, true
	case "deny":
		return domain.OrderStatusFailed, true
	case "cancel":
		return domain.OrderStatusCancelled, true
	case "expire":
		return domain.OrderStatusExpired, true
	case "refund", "partial_refund":
		return domain.OrderStatusRefunded, true
	}
	return "", false
}

// ParseGrossAmount reads amounts like "150000.00". A non-zero fractional
// part is rejected since totals are whole minor units.
func ParseGrossAmount(s string) (int64, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" || strings.Trim(frac, "0") != "" {
		return 0, ErrInvalidAmount
	}

	amount, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || amount < 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

// FormatGrossAmount renders an amount the way notifications carry it.
func FormatGrossAmount(amount int64) string {
	return strconv.FormatInt(amount, 10) + ".00"
}
