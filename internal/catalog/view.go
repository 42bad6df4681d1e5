package catalog

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/slug"
)

// View applies a session's filter to its catalog snapshot.
type View struct {
	products   []domain.Product
	categories []domain.Category
	filter     domain.CatalogFilter
}

// NewView builds a view over a catalog snapshot and its own filter.
func NewView(state domain.ProductsState) View {
	return View{
		products:   state.Products,
		categories: state.Categories,
		filter:     state.Filter,
	}
}

// Visible returns the products matching the filter, in catalog order.
func (v View) Visible() []domain.Product {
	return Apply(v.products, v.categories, v.filter)
}

// Page returns one page of the visible products.
func (v View) Page(params pagination.Params) pagination.Result[domain.Product] {
	return pagination.Paginate(v.Visible(), params)
}

// Apply selects the products that match every filter criterion:
//   - category: empty matches all, otherwise the product's category ID, or the
//     ID of the category whose slug equals the criterion (a display name such
//     as "Ev & Yaşam" is slugified first);
//   - price range: inclusive on both ends, on the effective (discounted) price;
//   - search: case-insensitive substring of name or description, empty matches all.
//
// An inverted price range (Min > Max) matches nothing.
func Apply(products []domain.Product, categories []domain.Category, f domain.CatalogFilter) []domain.Product {
	categoryID := resolveCategory(categories, f.Category)
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(f.Search))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if categoryID != "" && p.CategoryID != categoryID && p.CategoryID != f.Category {
			continue
		}
		if !f.PriceRange.Contains(p.EffectivePrice()) {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(p.Name), needle) &&
			!strings.Contains(fold.String(p.Description), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func resolveCategory(categories []domain.Category, criterion string) string {
	if criterion == "" {
		return ""
	}
	for _, c := range categories {
		if c.Slug == criterion {
			return c.ID
		}
	}
	for _, c := range categories {
		if slug.Matches(c.Slug, criterion) {
			return c.ID
		}
	}
	return criterion
}
