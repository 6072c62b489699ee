package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/export"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type ProductRequest struct {
	CategoryID  string `json:"category_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Price       int64  `json:"price" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	IsActive    *bool  `json:"is_active"`
}

func (req ProductRequest) input() service.ProductInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.ProductInput{
		CategoryID:  uuid.MustParse(req.CategoryID),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		IsActive:    active,
	}
}

type StockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

type ImageRequest struct {
	ObjectKey string `json:"object_key" validate:"required,max=512"`
}

// AdminCatalogHandler maintains categories and products for the back-office.
// Routes are mounted on a router that already requires an admin.
type AdminCatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewAdminCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *AdminCatalogHandler {
	return &AdminCatalogHandler{catalog: catalog, logger: logger}
}

func (h *AdminCatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/export", h.ExportProducts)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
		r.Put("/{id}/stock", h.SetStock)
		r.Post("/{id}/images", h.AddImage)
		r.Delete("/{id}/images/{imageID}", h.RemoveImage)
	})
}

func (h *AdminCatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *AdminCatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()), zap.String("slug", category.Slug))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *AdminCatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), id, service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// DeleteCategory refuses with 409 while products still reference the category.
func (h *AdminCatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete category")
		return
	}

	h.logger.Info("Category deleted", zap.String("category_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "category deleted"})
}

// ListProducts serves the product table:
// ?page=&page_size=&category_id=&q=&sort_by=&sort_order=asc|desc
func (h *AdminCatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.AdminProductQuery{
		Query:     strings.TrimSpace(q.Get("q")),
		SortBy:    q.Get("sort_by"),
		SortOrder: repository.SortOrder(strings.ToUpper(q.Get("sort_order"))),
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		query.CategoryID = &id
	}

	page := offsetParams(r)
	products, total, err := h.catalog.AdminListProducts(r.Context(), query, page)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newTable(products, page, total))
}

func (h *AdminCatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.catalog.AdminGetProduct(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *AdminCatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("slug", product.Slug))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *AdminCatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *AdminCatalogHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req StockRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.catalog.SetStock(r.Context(), id, req.Stock)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update stock")
		return
	}

	h.logger.Info("Stock updated", zap.String("product_id", id.String()), zap.Int("stock", req.Stock))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *AdminCatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "product deleted"})
}

// AddImage attaches an object that was uploaded through a presigned URL.
func (h *AdminCatalogHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req ImageRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	image, err := h.catalog.AddImage(r.Context(), id, req.ObjectKey)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to add image")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, image)
}

func (h *AdminCatalogHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	imageID, ok := uuidParam(w, r, "imageID")
	if !ok {
		return
	}

	if err := h.catalog.RemoveImage(r.Context(), id, imageID); err != nil {
		respondServiceError(w, h.logger, err, "failed to remove image")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "image removed"})
}

// ExportProducts renders the workbook in memory so a failure can still be
// reported as JSON.
func (h *AdminCatalogHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.catalog.ExportProducts(r.Context(), &buf); err != nil {
		respondServiceError(w, h.logger, err, "failed to export products")
		return
	}

	filename := fmt.Sprintf("products-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", export.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write export", zap.Error(err))
	}
}
