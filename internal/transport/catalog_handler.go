package transport

import (
	"net/http"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/pagination"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryProductsResponse is a category with the first page of its products.
type CategoryProductsResponse struct {
	Category *domain.Category                  `json:"category"`
	Products pagination.Page[*domain.Product] `json:"products"`
}

// CatalogHandler serves the public storefront catalog.
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/categories/{slug}", h.GetCategory)
	r.Get("/api/products", h.ListProducts)
	r.Get("/api/products/{idOrSlug}", h.GetProduct)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
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

// GetCategory returns the category and a cursor page of its active products.
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	params, ok := cursorParams(w, r)
	if !ok {
		return
	}

	slug := chi.URLParam(r, "slug")
	category, err := h.catalog.GetCategory(r.Context(), slug)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get category")
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), service.ProductQuery{CategorySlug: category.Slug}, params)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CategoryProductsResponse{Category: category, Products: products})
}

// ListProducts is the category-filtered product search:
// ?category=<slug>&q=<text>&min_price=&max_price=&limit=&cursor=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params, ok := cursorParams(w, r)
	if !ok {
		return
	}

	query, ok := productQuery(w, r)
	if !ok {
		return
	}

	page, err := h.catalog.ListProducts(r.Context(), query, params)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func productQuery(w http.ResponseWriter, r *http.Request) (service.ProductQuery, bool) {
	q := r.URL.Query()
	query := service.ProductQuery{
		CategorySlug: strings.TrimSpace(q.Get("category")),
		Query:        strings.TrimSpace(q.Get("q")),
	}

	var err error
	if query.MinPrice, err = optionalInt64(r, "min_price"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid min_price")
		return query, false
	}
	if query.MaxPrice, err = optionalInt64(r, "max_price"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid max_price")
		return query, false
	}
	return query, true
}
