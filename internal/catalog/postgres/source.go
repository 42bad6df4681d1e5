// Package postgres reads the catalog from the product database.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the catalog schema migrations for database.RunMigrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DB is the subset of *pgxpool.Pool the source uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const productColumns = `id, name, slug, description, COALESCE(category_id, ''), price, discount_price, stock, image_url, is_featured, created_at`

// Source implements catalog.Source on PostgreSQL.
type Source struct {
	db DB
}

// New creates a new PostgreSQL-backed catalog source.
func New(db DB) *Source {
	return &Source{db: db}
}

// ListProducts returns published products, newest first.
func (s *Source) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE status = 'published' ORDER BY created_at DESC, id`
	return s.queryProducts(ctx, "list_products", query)
}

// ListFeatured returns published products flagged as featured.
func (s *Source) ListFeatured(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE status = 'published' AND is_featured ORDER BY created_at DESC, id`
	return s.queryProducts(ctx, "list_featured", query)
}

// ListCategories returns every category in display order.
func (s *Source) ListCategories(ctx context.Context) (categories []domain.Category, err error) {
	query := `SELECT id, name, slug, description, image_url FROM categories ORDER BY sort_order, name`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "list_categories", query)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories = []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

// GetProduct retrieves a product by its ID.
func (s *Source) GetProduct(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "get_product", query)
	defer func() { end(err) }()

	p, err := scanProduct(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

// Ping checks database connectivity.
func (s *Source) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Source) queryProducts(ctx context.Context, op, query string) (products []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, op, query)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	products = []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p        domain.Product
		discount *int64
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.CategoryID,
		&p.Price,
		&discount,
		&p.Stock,
		&p.ImageURL,
		&p.IsFeatured,
		&p.CreatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	if discount != nil {
		p.DiscountPrice = domain.MoneyPtr(domain.Money(*discount))
	}
	return p, nil
}
