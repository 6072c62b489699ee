package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/export"
	"storefront/internal/pagination"
	"storefront/internal/repository"
	"storefront/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	categoriesCacheKey = "categories:all"
	categoriesCacheTTL = 5 * time.Minute

	slugAttempts = 3
)

var (
	ErrInvalidPriceRange = errors.New("min_price must not exceed max_price")
	ErrInvalidSlug       = errors.New("name does not produce a usable slug")
)

// ProductQuery is the public catalog search.
type ProductQuery struct {
	CategorySlug string
	Query        string
	MinPrice     *int64
	MaxPrice     *int64
}

type CategoryInput struct {
	Name        string
	Description string
}

type ProductInput struct {
	CategoryID  uuid.UUID
	Name        string
	Description string
	Price       int64
	Stock       int
	IsActive    bool
}

// AdminProductQuery drives the back-office product table.
type AdminProductQuery struct {
	CategoryID *uuid.UUID
	Query      string
	SortBy     string
	SortOrder  repository.SortOrder
}

// CatalogService covers the public catalog and its admin maintenance.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, slug string) (*domain.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListProducts(ctx context.Context, query ProductQuery, params pagination.Params) (pagination.Page[*domain.Product], error)
	GetProduct(ctx context.Context, idOrSlug string) (*domain.Product, error)

	AdminListProducts(ctx context.Context, query AdminProductQuery, page pagination.Offset) ([]*domain.Product, int, error)
	AdminGetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AddImage(ctx context.Context, productID uuid.UUID, objectKey string) (*domain.ProductImage, error)
	RemoveImage(ctx context.Context, productID, imageID uuid.UUID) error
	ExportProducts(ctx context.Context, w io.Writer) error
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	store      storage.Store
	cache      cache.Cache
	logger     *zap.Logger
}

func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	store storage.Store,
	c cache.Cache,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		products:   products,
		categories: categories,
		store:      store,
		cache:      c,
		logger:     logger,
	}
}

// ListCategories reads through the cache.
func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	var cached []*domain.Category
	if s.cache.Get(ctx, categoriesCacheKey, &cached) {
		return cached, nil
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	s.cache.Set(ctx, categoriesCacheKey, categories, categoriesCacheTTL)
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	slug := Slugify(input.Name)
	if slug == "" {
		return nil, ErrInvalidSlug
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.cache.Delete(ctx, categoriesCacheKey)
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	slug := Slugify(input.Name)
	if slug == "" {
		return nil, ErrInvalidSlug
	}

	category.Name = strings.TrimSpace(input.Name)
	category.Slug = slug
	category.Description = strings.TrimSpace(input.Description)
	category.UpdatedAt = time.Now().UTC()

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.cache.Delete(ctx, categoriesCacheKey)
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.cache.Delete(ctx, categoriesCacheKey)
	return nil
}

// ListProducts only ever shows active products.
func (s *catalogService) ListProducts(ctx context.Context, query ProductQuery, params pagination.Params) (pagination.Page[*domain.Product], error) {
	if query.MinPrice != nil && query.MaxPrice != nil && *query.MinPrice > *query.MaxPrice {
		return pagination.Page[*domain.Product]{}, ErrInvalidPriceRange
	}

	filter := domain.ProductFilter{
		Query:      strings.TrimSpace(query.Query),
		MinPrice:   query.MinPrice,
		MaxPrice:   query.MaxPrice,
		OnlyActive: true,
	}

	if query.CategorySlug != "" {
		category, err := s.categories.FindBySlug(ctx, query.CategorySlug)
		if err != nil {
			return pagination.Page[*domain.Product]{}, fmt.Errorf("failed to resolve category: %w", err)
		}
		filter.CategoryID = &category.ID
	}

	page, err := s.products.List(ctx, filter, params)
	if err != nil {
		return pagination.Page[*domain.Product]{}, fmt.Errorf("failed to list products: %w", err)
	}
	return page, nil
}

// GetProduct accepts either a uuid or a slug. Inactive products are hidden.
func (s *catalogService) GetProduct(ctx context.Context, idOrSlug string) (*domain.Product, error) {
	var (
		product *domain.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.products.FindByID(ctx, id)
	} else {
		product, err = s.products.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if !product.IsActive {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (s *catalogService) AdminListProducts(ctx context.Context, query AdminProductQuery, page pagination.Offset) ([]*domain.Product, int, error) {
	filter := domain.ProductFilter{
		CategoryID: query.CategoryID,
		Query:      strings.TrimSpace(query.Query),
	}

	products, total, err := s.products.AdminList(ctx, filter, page, query.SortBy, query.SortOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (s *catalogService) AdminGetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// CreateProduct derives the slug from the name, adding a short random
// suffix when the plain slug is already used.
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	base := Slugify(input.Name)
	if base == "" {
		return nil, ErrInvalidSlug
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       input.Stock,
		IsActive:    input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 0; attempt < slugAttempts; attempt++ {
		product.Slug = slugCandidate(base, attempt)

		err := s.products.Create(ctx, product)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, repository.ErrProductSlugTaken) {
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
	}

	return nil, repository.ErrProductSlugTaken
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	base := Slugify(input.Name)
	if base == "" {
		return nil, ErrInvalidSlug
	}
	renamed := strings.TrimSpace(input.Name) != product.Name

	product.CategoryID = input.CategoryID
	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.Price = input.Price
	product.Stock = input.Stock
	product.IsActive = input.IsActive
	product.UpdatedAt = time.Now().UTC()

	if !renamed {
		if err := s.products.Update(ctx, product); err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
		return product, nil
	}

	for attempt := 0; attempt < slugAttempts; attempt++ {
		product.Slug = slugCandidate(base, attempt)

		err := s.products.Update(ctx, product)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, repository.ErrProductSlugTaken) {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return nil, repository.ErrProductSlugTaken
}

func (s *catalogService) SetStock(ctx context.Context, id uuid.UUID, stock int) (*domain.Product, error) {
	if err := s.products.UpdateStock(ctx, id, stock); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	return s.AdminGetProduct(ctx, id)
}

// DeleteProduct removes the row first, then its stored images. Object
// removal failures only leave orphans behind, so they are logged.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	images, err := s.products.ListImages(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list product images: %w", err)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	for _, img := range images {
		s.removeObject(ctx, img.ObjectKey)
	}
	return nil
}

func (s *catalogService) AddImage(ctx context.Context, productID uuid.UUID, objectKey string) (*domain.ProductImage, error) {
	image := &domain.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		ObjectKey: objectKey,
		URL:       s.store.PublicURL(objectKey),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.products.AddImage(ctx, image); err != nil {
		return nil, fmt.Errorf("failed to add image: %w", err)
	}
	return image, nil
}

func (s *catalogService) RemoveImage(ctx context.Context, productID, imageID uuid.UUID) error {
	image, err := s.products.DeleteImage(ctx, productID, imageID)
	if err != nil {
		return fmt.Errorf("failed to remove image: %w", err)
	}

	s.removeObject(ctx, image.ObjectKey)
	return nil
}

func (s *catalogService) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID.String()] = c.Name
	}

	return export.ProductsXLSX(w, products, names)
}

func (s *catalogService) removeObject(ctx context.Context, key string) {
	if err := s.store.Remove(ctx, key); err != nil {
		s.logger.Warn("Failed to remove stored object",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Slugify lowercases name and joins its letter/digit runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}

func slugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return base + "-" + uuid.NewString()[:6]
}
