package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/pagination"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductSlugTaken = errors.New("product with this slug already exists")
	ErrImageNotFound    = errors.New("product image not found")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter, params pagination.Params) (pagination.Page[*domain.Product], error)
	AdminList(ctx context.Context, filter domain.ProductFilter, page pagination.Offset, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error)
	ListAll(ctx context.Context) ([]*domain.Product, error)

	AddImage(ctx context.Context, image *domain.ProductImage) error
	ListImages(ctx context.Context, productID uuid.UUID) ([]domain.ProductImage, error)
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) (*domain.ProductImage, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `
	p.id, p.category_id, p.name, p.slug, p.description, p.price, p.stock, p.is_active,
	COALESCE((SELECT pi.url FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.position, pi.created_at LIMIT 1), ''),
	p.created_at, p.updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.CategoryID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.IsActive,
		&product.ImageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return product, err
}

func productKey(p *domain.Product) pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, category_id, name, slug, description, price, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.CategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Stock,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return ErrProductSlugTaken
		}
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites the editable product fields
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET category_id = $2, name = $3, slug = $4, description = $5,
		    price = $6, stock = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.CategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Stock,
		product.IsActive,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return ErrProductSlugTaken
		}
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return ensureAffected(result, ErrProductNotFound)
}

func (r *productRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, id, stock)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	return ensureAffected(result, ErrProductNotFound)
}

// Delete removes a product; images, cart lines and wishlist entries cascade
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return ensureAffected(result, ErrProductNotFound)
}

// FindByID retrieves a product and its images
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.findOne(ctx, "p.id", id)
}

// FindBySlug retrieves a product and its images by URL slug
func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.findOne(ctx, "p.slug", slug)
}

func (r *productRepository) findOne(ctx context.Context, column string, value any) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE ` + column + ` = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	images, err := r.ListImages(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	product.Images = images

	return product, nil
}

func buildProductWhere(filter domain.ProductFilter, args []interface{}) ([]string, []interface{}) {
	var clauses []string

	if filter.OnlyActive {
		clauses = append(clauses, "p.is_active = TRUE")
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		clauses = append(clauses, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("p.price <= $%d", len(args)))
	}

	return clauses, args
}

func whereSQL(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(clauses, " AND ")
}

// List returns a keyset page of products, newest first.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter, params pagination.Params) (pagination.Page[*domain.Product], error) {
	clauses, args := buildProductWhere(filter, nil)

	if params.Cursor != nil {
		args = append(args, params.Cursor.CreatedAt, params.Cursor.ID)
		clauses = append(clauses, fmt.Sprintf("(p.created_at, p.id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	args = append(args, params.Limit+1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		%s
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d
	`, productColumns, whereSQL(clauses), len(args))

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return pagination.Page[*domain.Product]{}, err
	}

	return pagination.NewPage(products, params.Limit, productKey), nil
}

// AdminList retrieves products with filtering, offset pagination and sorting
func (r *productRepository) AdminList(ctx context.Context, filter domain.ProductFilter, page pagination.Offset, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"stock":      true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	clauses, args := buildProductWhere(filter, nil)
	where := whereSQL(clauses)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		%s
		ORDER BY p.%s %s, p.id
		LIMIT $%d OFFSET $%d
	`, productColumns, where, sortBy, sortOrder, len(args)+1, len(args)+2)
	args = append(args, page.PageSize, page.Skip())

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListAll returns every product ordered by name, used by the spreadsheet export.
func (r *productRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p ORDER BY p.name ASC`
	return r.queryProducts(ctx, query)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// AddImage appends an image after the product's current last position.
func (r *productRepository) AddImage(ctx context.Context, image *domain.ProductImage) error {
	query := `
		INSERT INTO product_images (id, product_id, object_key, url, position, created_at)
		VALUES ($1, $2, $3, $4,
			COALESCE((SELECT MAX(position) + 1 FROM product_images WHERE product_id = $2), 0),
			$5)
		RETURNING position
	`

	err := r.db.QueryRowContext(ctx, query,
		image.ID,
		image.ProductID,
		image.ObjectKey,
		image.URL,
		image.CreatedAt,
	).Scan(&image.Position)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to add product image: %w", err)
	}

	return nil
}

func (r *productRepository) ListImages(ctx context.Context, productID uuid.UUID) ([]domain.ProductImage, error) {
	query := `
		SELECT id, product_id, object_key, url, position, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY position, created_at
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	images := []domain.ProductImage{}
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.ObjectKey, &img.URL, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, img)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}

// DeleteImage removes the row and hands it back so the caller can drop the
// stored object.
func (r *productRepository) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) (*domain.ProductImage, error) {
	query := `
		DELETE FROM product_images
		WHERE id = $1 AND product_id = $2
		RETURNING id, product_id, object_key, url, position, created_at
	`

	var img domain.ProductImage
	err := r.db.QueryRowContext(ctx, query, imageID, productID).Scan(
		&img.ID, &img.ProductID, &img.ObjectKey, &img.URL, &img.Position, &img.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to delete product image: %w", err)
	}

	return &img, nil
}
