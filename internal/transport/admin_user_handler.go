package transport

import (
	"net/http"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type PresignRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required"`
}

// AdminUserHandler serves the back-office user table and image uploads.
type AdminUserHandler struct {
	users   service.AdminUserService
	uploads service.UploadService
	logger  *zap.Logger
}

func NewAdminUserHandler(users service.AdminUserService, uploads service.UploadService, logger *zap.Logger) *AdminUserHandler {
	return &AdminUserHandler{users: users, uploads: uploads, logger: logger}
}

func (h *AdminUserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Put("/{id}/role", h.ChangeRole)
		r.Delete("/{id}", h.DeleteUser)
	})
	r.Post("/uploads/presign", h.PresignUpload)
}

// ListUsers serves ?page=&page_size=&search=<email fragment>
func (h *AdminUserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := offsetParams(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	users, total, err := h.users.ListUsers(r.Context(), search, page)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list users")
		return
	}

	profiles := make([]UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, newUserProfile(u))
	}
	middleware.RespondWithJSON(w, http.StatusOK, newTable(profiles, page, total))
}

func (h *AdminUserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	user, err := h.users.ChangeRole(r.Context(), actorID, userID, req.Role)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to change role")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newUserProfile(user))
}

// DeleteUser refuses admins and the caller's own account with 409.
func (h *AdminUserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), actorID, userID); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete user")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "user deleted"})
}

// PresignUpload hands out a short-lived PUT URL for a product image.
func (h *AdminUserHandler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req PresignRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	upload, err := h.uploads.PresignProductImage(r.Context(), req.Filename, strings.ToLower(req.ContentType))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to presign upload")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, upload)
}
