package transport

import (
	"io"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutRequest picks a shipping address; empty means the main one.
type CheckoutRequest struct {
	AddressID string `json:"address_id" validate:"omitempty,uuid"`
}

// OrderHandler serves checkout and the customer's own order history.
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/api/checkout", h.Checkout)
		r.Get("/api/orders", h.ListOrders)
		r.Get("/api/orders/{id}", h.GetOrder)
		r.Post("/api/orders/{id}/cancel", h.CancelOrder)
	})
}

// Checkout turns the cart into a pending order and returns the payment
// redirect. The body is optional.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req CheckoutRequest
	if r.ContentLength != 0 {
		if err := middleware.DecodeAndValidate(r, &req); err != nil && err != io.EOF {
			if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
				middleware.RespondWithValidationErrors(w, validationErrors)
				return
			}
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var addressID *uuid.UUID
	if req.AddressID != "" {
		id := uuid.MustParse(req.AddressID)
		addressID = &id
	}

	result, err := h.orders.Checkout(r.Context(), userID, addressID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to checkout")
		return
	}

	h.logger.Info("Checkout completed",
		zap.String("user_id", userID.String()),
		zap.String("order_id", result.Order.ID.String()),
		zap.String("order_number", result.Order.OrderNumber),
		zap.Int64("total", result.Order.Total),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	params, ok := cursorParams(w, r)
	if !ok {
		return
	}

	page, err := h.orders.ListOrders(r.Context(), userID, params)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// GetOrder is the tracking view: status, shipping snapshot and items.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.CancelOrder(r.Context(), userID, orderID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to cancel order")
		return
	}

	h.logger.Info("Order cancelled by customer",
		zap.String("user_id", userID.String()),
		zap.String("order_id", orderID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
