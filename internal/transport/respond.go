package transport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/pagination"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageResponse answers mutations that have no entity to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// TableResponse is one page of an admin table plus its pagination bar.
type TableResponse[T any] struct {
	Items []T             `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

func newTable[T any](items []T, page pagination.Offset, total int) TableResponse[T] {
	if items == nil {
		items = []T{}
	}
	return TableResponse[T]{Items: items, Meta: pagination.NewMeta(page, total)}
}

type errorMapping struct {
	target error
	status int
}

var errorStatuses = []errorMapping{
	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrCategoryNotFound, http.StatusNotFound},
	{repository.ErrProductNotFound, http.StatusNotFound},
	{repository.ErrImageNotFound, http.StatusNotFound},
	{repository.ErrCartItemNotFound, http.StatusNotFound},
	{repository.ErrOrderNotFound, http.StatusNotFound},
	{repository.ErrAddressNotFound, http.StatusNotFound},
	{repository.ErrWishlistItemNotFound, http.StatusNotFound},

	{repository.ErrUserAlreadyExists, http.StatusConflict},
	{repository.ErrCategoryAlreadyExists, http.StatusConflict},
	{repository.ErrCategoryInUse, http.StatusConflict},
	{repository.ErrProductSlugTaken, http.StatusConflict},
	{repository.ErrProductUnavailable, http.StatusConflict},
	{repository.ErrInsufficientStock, http.StatusConflict},
	{repository.ErrAddressLimitReached, http.StatusConflict},
	{repository.ErrInvalidTransition, http.StatusConflict},
	{service.ErrItemUnavailable, http.StatusConflict},
	{service.ErrOrderNotCancelable, http.StatusConflict},
	{service.ErrCannotDeleteAdmin, http.StatusConflict},
	{service.ErrCannotDeleteSelf, http.StatusConflict},
	{service.ErrCannotChangeOwnRole, http.StatusConflict},

	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrTokenExpired, http.StatusUnauthorized},
	{repository.ErrRefreshTokenNotFound, http.StatusUnauthorized},
	{repository.ErrRefreshTokenRevoked, http.StatusUnauthorized},
	{service.ErrInvalidSignature, http.StatusForbidden},

	{service.ErrWrongPassword, http.StatusBadRequest},
	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrInvalidPriceRange, http.StatusBadRequest},
	{service.ErrInvalidSlug, http.StatusBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest},
	{service.ErrCartEmpty, http.StatusBadRequest},
	{service.ErrNoShippingAddress, http.StatusBadRequest},
	{service.ErrAmountMismatch, http.StatusBadRequest},
	{payment.ErrInvalidAmount, http.StatusBadRequest},
	{storage.ErrUnsupportedContentType, http.StatusBadRequest},
	{pagination.ErrInvalidCursor, http.StatusBadRequest},

	{service.ErrPaymentUnavailable, http.StatusBadGateway},
}

// statusFor finds the HTTP status for a known error. The message is the
// sentinel text, or the full error when it only appends detail to it.
func statusFor(err error) (int, string, bool) {
	for _, m := range errorStatuses {
		if errors.Is(err, m.target) {
			msg := m.target.Error()
			if strings.HasPrefix(err.Error(), msg) {
				msg = err.Error()
			}
			return m.status, msg, true
		}
	}
	return 0, "", false
}

// respondServiceError writes the envelope for err. Unknown errors are logged
// and reported as 500 with fallback as the message.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	if status, msg, ok := statusFor(err); ok {
		logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
		middleware.RespondWithError(w, status, msg)
		return
	}
	logger.Error(fallback, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}

// decodeRequest decodes and validates the JSON body into v, answering 400
// itself when that fails.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// currentUser returns the authenticated user id.
func currentUser(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// cursorParams reads ?limit= and ?cursor=.
func cursorParams(w http.ResponseWriter, r *http.Request) (pagination.Params, bool) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	params, err := pagination.ParseParams(limit, q.Get("cursor"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return pagination.Params{}, false
	}
	return params, true
}

// offsetParams reads ?page= and ?page_size=; NewOffset fixes bad values.
func offsetParams(r *http.Request) pagination.Offset {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return pagination.NewOffset(page, size)
}

// optionalInt64 parses a query value that may be absent.
func optionalInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
