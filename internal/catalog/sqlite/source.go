// Package sqlite reads the catalog from a local SQLite file. It backs
// development setups that run without the product API or PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/slug"
)

//go:embed schema.sql
var schema string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const productColumns = `id, name, slug, description, COALESCE(category_id, ''), price, discount_price, stock, image_url, is_featured, created_at`

// Source implements catalog.Source on SQLite.
type Source struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Source, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := MemoryPath
	if path != MemoryPath {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Source{db: db}, nil
}

// Close closes the database handle.
func (s *Source) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ListProducts returns published products, newest first.
func (s *Source) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE status = 'published' ORDER BY created_at DESC, id`
	return s.queryProducts(ctx, "list_products", query)
}

// ListFeatured returns published products flagged as featured.
func (s *Source) ListFeatured(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE status = 'published' AND is_featured = 1 ORDER BY created_at DESC, id`
	return s.queryProducts(ctx, "list_featured", query)
}

// ListCategories returns every category in display order.
func (s *Source) ListCategories(ctx context.Context) (categories []domain.Category, err error) {
	query := `SELECT id, name, slug, description, image_url FROM categories ORDER BY sort_order, name`

	ctx, end := database.TraceQuery(ctx, database.SystemSQLite, "list_categories", query)
	defer func() { end(err) }()

	rows, err := s.db.QueryContext(ctx, query)
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
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	ctx, end := database.TraceQuery(ctx, database.SystemSQLite, "get_product", query)
	defer func() { end(err) }()

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

// Ping checks the database handle.
func (s *Source) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertCategory inserts or replaces a category. A missing slug is derived
// from the name.
func (s *Source) UpsertCategory(ctx context.Context, c domain.Category, sortOrder int) error {
	if c.Slug == "" {
		c.Slug = slug.Generate(c.Name)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, slug, description, image_url, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   slug = excluded.slug,
		   description = excluded.description,
		   image_url = excluded.image_url,
		   sort_order = excluded.sort_order`,
		c.ID, c.Name, c.Slug, c.Description, c.ImageURL, sortOrder,
	)
	if err != nil {
		return fmt.Errorf("upsert category %s: %w", c.ID, err)
	}
	return nil
}

// UpsertProduct inserts or replaces a published product. A missing slug is
// derived from the name.
func (s *Source) UpsertProduct(ctx context.Context, p domain.Product) error {
	if p.Slug == "" {
		p.Slug = slug.Generate(p.Name)
	}
	var discount sql.NullInt64
	if p.DiscountPrice != nil {
		discount = sql.NullInt64{Int64: int64(*p.DiscountPrice), Valid: true}
	}
	var category sql.NullString
	if p.CategoryID != "" {
		category = sql.NullString{String: p.CategoryID, Valid: true}
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, slug, description, category_id, price, discount_price, stock, image_url, is_featured, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   slug = excluded.slug,
		   description = excluded.description,
		   category_id = excluded.category_id,
		   price = excluded.price,
		   discount_price = excluded.discount_price,
		   stock = excluded.stock,
		   image_url = excluded.image_url,
		   is_featured = excluded.is_featured`,
		p.ID, p.Name, p.Slug, p.Description, category, int64(p.Price), discount,
		p.Stock, p.ImageURL, p.IsFeatured, toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (s *Source) queryProducts(ctx context.Context, op, query string) (products []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemSQLite, op, query)
	defer func() { end(err) }()

	rows, err := s.db.QueryContext(ctx, query)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (domain.Product, error) {
	var (
		p         domain.Product
		price     int64
		discount  sql.NullInt64
		createdAt int64
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.CategoryID,
		&price,
		&discount,
		&p.Stock,
		&p.ImageURL,
		&p.IsFeatured,
		&createdAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Price = domain.Money(price)
	if discount.Valid {
		p.DiscountPrice = domain.MoneyPtr(domain.Money(discount.Int64))
	}
	p.CreatedAt = fromMillis(createdAt)
	return p, nil
}
