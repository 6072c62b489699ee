package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderHandler serves the back-office order table and live feed.
type AdminOrderHandler struct {
	orders   service.OrderService
	payments service.PaymentService
	feed     http.Handler
	logger   *zap.Logger
}

// NewAdminOrderHandler takes the websocket endpoint as feed.
func NewAdminOrderHandler(orders service.OrderService, payments service.PaymentService, feed http.Handler, logger *zap.Logger) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, payments: payments, feed: feed, logger: logger}
}

func (h *AdminOrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/feed", h.feed.ServeHTTP)
		r.Get("/{id}", h.GetOrder)
		r.Get("/{id}/payments", h.PaymentHistory)
		r.Put("/{id}/status", h.UpdateStatus)
	})
}

// ListOrders serves ?page=&page_size=&status=&user_id=
func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.OrderFilter

	if raw := q.Get("status"); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}
	if raw := q.Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserID = &id
	}

	page := offsetParams(r)
	orders, total, err := h.orders.AdminListOrders(r.Context(), filter, page)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newTable(orders, page, total))
}

func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.AdminGetOrder(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// PaymentHistory returns the raw gateway notifications stored for an order.
func (h *AdminOrderHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	events, err := h.payments.History(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list payment events")
		return
	}
	if events == nil {
		events = []*domain.PaymentEvent{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// UpdateStatus moves an order along the allowed transitions; anything else
// is a 409.
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	status, valid := domain.ParseOrderStatus(req.Status)
	if !valid {
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, "invalid status", map[string]interface{}{
			"status": req.Status,
		})
		return
	}

	order, err := h.orders.AdminUpdateStatus(r.Context(), orderID, status)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update order status")
		return
	}

	actorID, _ := middleware.GetUserID(r.Context())
	h.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(order.Status)),
		zap.String("actor_id", actorID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
