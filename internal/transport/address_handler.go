package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AddressRequest struct {
	Recipient  string `json:"recipient" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"required,phone"`
	Line1      string `json:"line1" validate:"required,max=255"`
	Line2      string `json:"line2" validate:"max=255"`
	City       string `json:"city" validate:"required,max=100"`
	Province   string `json:"province" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	IsMain     bool   `json:"is_main"`
}

func (req AddressRequest) input() service.AddressInput {
	return service.AddressInput{
		Recipient:  req.Recipient,
		Phone:      req.Phone,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		Province:   req.Province,
		PostalCode: req.PostalCode,
		IsMain:     req.IsMain,
	}
}

// AddressHandler manages the address book (at most two entries per user).
type AddressHandler struct {
	addresses service.AddressService
	logger    *zap.Logger
}

func NewAddressHandler(addresses service.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{addresses: addresses, logger: logger}
}

func (h *AddressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/addresses", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/main", h.SetMain)
	})
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	addresses, err := h.addresses.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list addresses")
		return
	}
	if addresses == nil {
		addresses = []*domain.Address{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, addresses)
}

// Create answers 409 once the user already has two addresses.
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req AddressRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	address, err := h.addresses.Create(r.Context(), userID, req.input())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create address")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, address)
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req AddressRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	address, err := h.addresses.Update(r.Context(), userID, id, req.input())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update address")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, address)
}

func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.addresses.Delete(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete address")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "address deleted"})
}

func (h *AddressHandler) SetMain(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	address, err := h.addresses.SetMain(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to set main address")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, address)
}
