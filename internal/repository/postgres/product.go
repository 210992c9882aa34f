package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/webshoplabs/catalog/internal/domain"
	"github.com/webshoplabs/catalog/internal/repository"
	"github.com/webshoplabs/catalog/pkg/database"
	apperrors "github.com/webshoplabs/catalog/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts the product and its images in a single transaction.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateProduct", "INSERT INTO products")
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create product: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO products (name, description, price, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.Price.String(),
		p.Category,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	if err := insertImages(ctx, tx, p.ID, p.Images); err != nil {
		return err
	}
	for i := range p.Images {
		p.Images[i].ProductID = p.ID
		p.Images[i].Position = i
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create product: %w", err)
	}
	return nil
}

// GetByID retrieves a product with its images and reviews.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (_ *domain.Product, err error) {
	query := `
		SELECT id, name, description, price::text, category, created_at, updated_at
		FROM products
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProductByID", query)
	defer func() { end(err) }()

	var (
		p        domain.Product
		priceRaw string
	)
	err = r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&priceRaw,
		&p.Category,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	if p.Price, err = decimal.NewFromString(priceRaw); err != nil {
		return nil, fmt.Errorf("parse product price: %w", err)
	}

	images, err := r.imagesForProducts(ctx, []int64{p.ID})
	if err != nil {
		return nil, err
	}
	p.Images = images[p.ID]

	reviews, err := r.reviewsForProducts(ctx, []int64{p.ID})
	if err != nil {
		return nil, err
	}
	p.Reviews = reviews[p.ID]

	return &p, nil
}

// List returns a page of products matching the filter with the total count.
// Results are ordered by ID so pages are stable across inserts at the end.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListProducts", "SELECT FROM products")
	defer func() { end(err) }()

	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Name != nil && *filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+*filter.Name+"%")
		argIndex++
	}

	if filter.Category != nil && *filter.Category != "" && *filter.Category != domain.CategoryAll {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, filter.MinPrice.String())
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() folds the total count into the page query.
	query := fmt.Sprintf(`
		SELECT id, name, description, price::text, category, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY id
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, repository.DefaultPageSize, (page-1)*repository.DefaultPageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var (
			p        domain.Product
			priceRaw string
		)
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&priceRaw,
			&p.Category,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		if p.Price, err = decimal.NewFromString(priceRaw); err != nil {
			return nil, 0, fmt.Errorf("parse product price: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if len(products) == 0 {
		// An out-of-range page returns no rows and with them no window
		// count, so fall back to a plain count to keep the total honest.
		countQuery := "SELECT count(*) FROM products " + whereClause
		if err = r.db.QueryRow(ctx, countQuery, args[:argIndex-1]...).Scan(&totalCount); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
		return []domain.Product{}, totalCount, nil
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	images, err := r.imagesForProducts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	reviews, err := r.reviewsForProducts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].Images = images[products[i].ID]
		products[i].Reviews = reviews[products[i].ID]
	}

	return products, totalCount, nil
}

// Update rewrites the product row and replaces its image set in a single
// transaction.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateProduct", "UPDATE products")
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update product: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, updated_at = $5
		WHERE id = $6`

	ct, err := tx.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Price.String(),
		p.Category,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("delete product images: %w", err)
	}

	if err := insertImages(ctx, tx, p.ID, p.Images); err != nil {
		return err
	}
	for i := range p.Images {
		p.Images[i].ProductID = p.ID
		p.Images[i].Position = i
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update product: %w", err)
	}
	return nil
}

// Delete removes a product; images and reviews cascade.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteProduct", "DELETE FROM products")
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// Exists reports whether a product with the given ID exists.
func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return exists, nil
}

// insertImages writes the image rows for a product, positions assigned in
// slice order. IDs are filled in from the returned values.
func insertImages(ctx context.Context, tx pgx.Tx, productID int64, images []domain.Image) error {
	query := `
		INSERT INTO product_images (product_id, url, position)
		VALUES ($1, $2, $3)
		RETURNING id`

	for i := range images {
		if err := tx.QueryRow(ctx, query, productID, images[i].URL, i).Scan(&images[i].ID); err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
	}
	return nil
}

// imagesForProducts batch-loads images for the given product IDs, ordered by
// position within each product.
func (r *ProductRepository) imagesForProducts(ctx context.Context, ids []int64) (map[int64][]domain.Image, error) {
	query := `
		SELECT id, product_id, url, position
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY product_id, position, id`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("load product images: %w", err)
	}
	defer rows.Close()

	images := make(map[int64][]domain.Image)
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Position); err != nil {
			return nil, fmt.Errorf("scan image row: %w", err)
		}
		images[img.ProductID] = append(images[img.ProductID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image rows: %w", err)
	}
	return images, nil
}

// reviewsForProducts batch-loads reviews for the given product IDs.
func (r *ProductRepository) reviewsForProducts(ctx context.Context, ids []int64) (map[int64][]domain.Review, error) {
	query := `
		SELECT id, product_id, name, rating, content, created_at
		FROM product_reviews
		WHERE product_id = ANY($1)
		ORDER BY product_id, created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("load product reviews: %w", err)
	}
	defer rows.Close()

	reviews := make(map[int64][]domain.Review)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.Name, &rv.Rating, &rv.Content, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews[rv.ProductID] = append(reviews[rv.ProductID], rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}
