// Package catalog loads product data into session stores and derives the
// filtered listing a shopper sees. The stores themselves never filter.
package catalog

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// Source reads catalog data from a backing system.
type Source interface {
	// ListProducts returns every listed product.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// ListCategories returns every category.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// ListFeatured returns the featured subset of products.
	ListFeatured(ctx context.Context) ([]domain.Product, error)

	// GetProduct returns a single product. Missing products yield an
	// apperrors.ErrNotFound-wrapping error.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// Ping checks that the source is reachable.
	Ping(ctx context.Context) error
}
