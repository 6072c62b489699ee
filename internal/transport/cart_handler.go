package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=99"`
}

// SetQuantityRequest allows zero, which removes the line.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

type CartHandler struct {
	cart   service.CartService
	logger *zap.Logger
}

func NewCartHandler(cart service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListItems)
		r.Delete("/", h.Clear)
		r.Get("/summary", h.Summary)
		r.Get("/items", h.ListItems)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.SetQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
}

func (h *CartHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	params, ok := cursorParams(w, r)
	if !ok {
		return
	}

	page, err := h.cart.ListItems(r.Context(), userID, params)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.cart.Summary(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to summarize cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// AddItem adds to an existing line; the result is capped at the stock level.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	item, err := h.cart.AddItem(r.Context(), userID, uuid.MustParse(req.ProductID), req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to add item to cart")
		return
	}

	h.logger.Debug("Cart item added",
		zap.String("user_id", userID.String()),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", item.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	var req SetQuantityRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	item, err := h.cart.SetQuantity(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update cart item")
		return
	}
	if item == nil {
		middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "item removed"})
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.cart.RemoveItem(r.Context(), userID, productID); err != nil {
		respondServiceError(w, h.logger, err, "failed to remove cart item")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "item removed"})
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.cart.Clear(r.Context(), userID); err != nil {
		respondServiceError(w, h.logger, err, "failed to clear cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "cart cleared"})
}
