package transport

import (
	"context"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WishlistStatusResponse struct {
	ProductID  string `json:"product_id"`
	InWishlist bool   `json:"in_wishlist"`
}

type WishlistHandler struct {
	wishlist service.WishlistService
	logger   *zap.Logger
}

func NewWishlistHandler(wishlist service.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, logger: logger}
}

func (h *WishlistHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Get("/{productID}", h.Contains)
		r.Post("/{productID}", h.Add)
		r.Delete("/{productID}", h.Remove)
		r.Post("/{productID}/toggle", h.Toggle)
	})
}

func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	params, ok := cursorParams(w, r)
	if !ok {
		return
	}

	page, err := h.wishlist.List(r.Context(), userID, params)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list wishlist")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, h.wishlist.Contains)
}

// Add is idempotent.
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.wishlist.Add(r.Context(), userID, productID); err != nil {
		respondServiceError(w, h.logger, err, "failed to add to wishlist")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, WishlistStatusResponse{ProductID: productID.String(), InWishlist: true})
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.wishlist.Remove(r.Context(), userID, productID); err != nil {
		respondServiceError(w, h.logger, err, "failed to remove from wishlist")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, WishlistStatusResponse{ProductID: productID.String(), InWishlist: false})
}

func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, h.wishlist.Toggle)
}

func (h *WishlistHandler) status(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, productID uuid.UUID) (bool, error)) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	in, err := op(r.Context(), userID, productID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update wishlist")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, WishlistStatusResponse{ProductID: productID.String(), InWishlist: in})
}
