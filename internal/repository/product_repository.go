package repository

import (
	"context"
	"fmt"
	"strings"

	"pottery-store/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, description, price::text, stock, category_id,
	height, width, depth, diameter, weight, colors, image_url, created_at, updated_at`

const insertProductQuery = `
	INSERT INTO products (id, name, description, price, stock, category_id,
		height, width, depth, diameter, weight, colors, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// scanProduct scans a row selected with productColumns.
func scanProduct(row rowScanner) (model.Product, error) {
	var (
		p     model.Product
		price string
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&price,
		&p.Stock,
		&p.CategoryID,
		&p.Dimensions.Height,
		&p.Dimensions.Width,
		&p.Dimensions.Depth,
		&p.Dimensions.Diameter,
		&p.Dimensions.Weight,
		&p.Colors,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}
	if p.Price, err = parseDecimal("price", price); err != nil {
		return p, err
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	return p, nil
}

// collectProducts drains rows selected with productColumns.
func (r *productRepository) collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetAll retrieves products matching the filter with pagination support.
func (r *productRepository) GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR category_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		ORDER BY name, id
		LIMIT $3 OFFSET $4
	`

	search := strings.TrimSpace(filter.Search)
	rows, err := r.pool.Query(ctx, query, filter.CategoryID, search, filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Error().Err(err).
			Str("category_id", filter.CategoryID).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	return r.collectProducts(rows)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY name`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	return r.collectProducts(rows)
}

// LockByIDs reads the given products inside tx with row locks held until commit or rollback.
func (r *productRepository) LockByIDs(ctx context.Context, tx pgx.Tx, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	// A fixed lock order keeps two checkouts over the same products from deadlocking.
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	return r.collectProducts(rows)
}

// AdjustStock adds delta to a product's stock inside tx.
func (r *productRepository) AdjustStock(ctx context.Context, tx pgx.Tx, id string, delta int) error {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
	`

	tag, err := tx.Exec(ctx, query, id, delta)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Int("delta", delta).Msg("failed to adjust stock")
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("product_id", id).Int("delta", delta).Msg("stock adjustment rejected")
		return model.ErrInsufficientStock
	}

	r.logger.Debug().Str("product_id", id).Int("delta", delta).Msg("stock adjusted")

	return nil
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	_, err := r.pool.Exec(ctx, insertProductQuery, productArgs(p)...)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return model.ErrCategoryNotFound
		}
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID).Msg("product created successfully")

	return nil
}

// CreateBatch inserts multiple products within the provided transaction.
func (r *productRepository) CreateBatch(ctx context.Context, tx pgx.Tx, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range products {
		batch.Queue(insertProductQuery, productArgs(&products[i])...)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(products); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("product_id", products[i].ID).
				Str("name", products[i].Name).
				Msg("failed to create product in batch")
			if pgErrorCode(err) == pgForeignKeyViolation {
				return model.ErrCategoryNotFound
			}
			return fmt.Errorf("failed to create product %q: %w", products[i].Name, err)
		}
	}

	r.logger.Debug().Int("count", len(products)).Msg("product batch created successfully")

	return nil
}

// Update replaces a product's editable fields.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, category_id = $6,
			height = $7, width = $8, depth = $9, diameter = $10, weight = $11,
			colors = $12, image_url = $13, updated_at = $14
		WHERE id = $1
		RETURNING created_at
	`

	args := productArgs(p)
	args = append(args[:13], p.UpdatedAt)
	err := r.pool.QueryRow(ctx, query, args...).Scan(&p.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.ErrProductNotFound
		}
		if pgErrorCode(err) == pgForeignKeyViolation {
			return model.ErrCategoryNotFound
		}
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return model.ErrProductInUse
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// ListLowStock returns products whose stock is at or below threshold.
func (r *productRepository) ListLowStock(ctx context.Context, threshold, limit int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE stock <= $1
		ORDER BY stock, name
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, threshold, limit)
	if err != nil {
		r.logger.Error().Err(err).Int("threshold", threshold).Msg("failed to query low stock products")
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}

	return r.collectProducts(rows)
}

// productArgs returns the insert arguments for p in column order.
func productArgs(p *model.Product) []any {
	colors := p.Colors
	if colors == nil {
		colors = []string{}
	}
	return []any{
		p.ID,
		p.Name,
		p.Description,
		p.Price.String(),
		p.Stock,
		p.CategoryID,
		p.Dimensions.Height,
		p.Dimensions.Width,
		p.Dimensions.Depth,
		p.Dimensions.Diameter,
		p.Dimensions.Weight,
		colors,
		p.ImageURL,
		p.CreatedAt,
		p.UpdatedAt,
	}
}
