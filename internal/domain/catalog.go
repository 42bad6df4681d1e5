package domain

// DefaultPriceCeiling is the upper bound of the initial price range filter (1,000,000.00).
const DefaultPriceCeiling Money = 1_000_000_00

// PriceRange is an inclusive price window.
type PriceRange struct {
	Min Money `json:"min"`
	Max Money `json:"max"`
}

// Contains reports whether price falls inside the range, bounds included.
func (r PriceRange) Contains(price Money) bool {
	return price >= r.Min && price <= r.Max
}

// CatalogFilter holds the criteria a product listing view narrows by.
// An empty Category or Search means "no filter" for that field.
type CatalogFilter struct {
	Category   string     `json:"category"`
	PriceRange PriceRange `json:"price_range"`
	Search     string     `json:"search"`
}

// DefaultCatalogFilter returns the filter a fresh session starts with.
func DefaultCatalogFilter() CatalogFilter {
	return CatalogFilter{
		PriceRange: PriceRange{Min: 0, Max: DefaultPriceCeiling},
	}
}

// FilterPatch is a partial filter update. Nil fields keep their prior value.
type FilterPatch struct {
	Category   *string     `json:"category,omitempty"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
	Search     *string     `json:"search,omitempty"`
}

// ProductsState is the catalog snapshot a session browses. The lists are
// replaced wholesale by each load; nothing here filters them.
type ProductsState struct {
	Products   []Product     `json:"products"`
	Categories []Category    `json:"categories"`
	Featured   []Product     `json:"featured"`
	Current    *Product      `json:"current,omitempty"`
	Loading    bool          `json:"loading"`
	Error      *string       `json:"error,omitempty"`
	Filter     CatalogFilter `json:"filter"`
}

// NewProductsState returns an empty catalog with the default filter.
func NewProductsState() ProductsState {
	return ProductsState{
		Products:   []Product{},
		Categories: []Category{},
		Featured:   []Product{},
		Filter:     DefaultCatalogFilter(),
	}
}

// SetProducts replaces the product list.
func (s ProductsState) SetProducts(products []Product) ProductsState {
	s.Products = nonNil(products)
	return s
}

// SetCategories replaces the category list.
func (s ProductsState) SetCategories(categories []Category) ProductsState {
	s.Categories = nonNil(categories)
	return s
}

// SetFeatured replaces the featured product list.
func (s ProductsState) SetFeatured(products []Product) ProductsState {
	s.Featured = nonNil(products)
	return s
}

// SetCurrent sets the currently viewed product. Nil clears it.
func (s ProductsState) SetCurrent(product *Product) ProductsState {
	if product == nil {
		s.Current = nil
		return s
	}
	p := *product
	s.Current = &p
	return s
}

// SetLoading sets the loading flag.
func (s ProductsState) SetLoading(loading bool) ProductsState {
	s.Loading = loading
	return s
}

// SetError records a fetch failure and ends loading.
func (s ProductsState) SetError(message string) ProductsState {
	s.Error = &message
	s.Loading = false
	return s
}

// ClearError drops the recorded error.
func (s ProductsState) ClearError() ProductsState {
	s.Error = nil
	return s
}

// MergeFilter applies a shallow filter update.
func (s ProductsState) MergeFilter(patch FilterPatch) ProductsState {
	if patch.Category != nil {
		s.Filter.Category = *patch.Category
	}
	if patch.PriceRange != nil {
		s.Filter.PriceRange = *patch.PriceRange
	}
	if patch.Search != nil {
		s.Filter.Search = *patch.Search
	}
	return s
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
