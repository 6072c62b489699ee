package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxNotificationBytes = 64 << 10

type NotificationResponse struct {
	Outcome     string `json:"outcome"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status,omitempty"`
}

// PaymentHandler receives the gateway's HTTP notifications. The endpoint is
// public; authenticity comes from the signature key.
type PaymentHandler struct {
	payments service.PaymentService
	logger   *zap.Logger
}

func NewPaymentHandler(payments service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/payments/notification", h.Notification)
}

// Notification answers 200 for anything the gateway should not retry,
// duplicates and ignored statuses included.
func (h *PaymentHandler) Notification(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotificationBytes))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var n payment.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		h.logger.Warn("Malformed payment notification", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateRequest(&n); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid notification")
		return
	}

	result, err := h.payments.HandleNotification(r.Context(), n, raw)
	if err != nil {
		if status, _, ok := statusFor(err); ok {
			h.logger.Warn("Payment notification rejected",
				zap.String("order_number", n.OrderID),
				zap.String("transaction_id", n.TransactionID),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
		respondServiceError(w, h.logger, err, "failed to process notification")
		return
	}

	response := NotificationResponse{
		Outcome:     string(result.Outcome),
		OrderNumber: n.OrderID,
	}
	if result.Order != nil {
		response.Status = string(result.Order.Status)
	}

	h.logger.Info("Payment notification processed",
		zap.String("order_number", n.OrderID),
		zap.String("transaction_status", n.TransactionStatus),
		zap.String("outcome", response.Outcome),
	)
	middleware.RespondWithJSON(w, http.StatusOK, response)
}
