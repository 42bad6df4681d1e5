package i18n

// Key identifies a translatable message. Every key carries its own default
// text, so a lookup never comes back empty.
type Key string

const (
	KeyCartEmpty       Key = "cart.empty"
	KeyCartItems       Key = "cart.items"
	KeyCartTotal       Key = "cart.total"
	KeyCartItemAdded   Key = "cart.item_added"
	KeyCartItemRemoved Key = "cart.item_removed"
	KeyCartCleared     Key = "cart.cleared"

	KeyCatalogLoading   Key = "catalog.loading"
	KeyCatalogNoResults Key = "catalog.no_results"
	KeyCatalogFeatured  Key = "catalog.featured"
	KeyFilterAll        Key = "filter.all_categories"
	KeyFilterSearch     Key = "filter.search"
	KeyFilterPrice      Key = "filter.price_range"

	KeyErrProductNotFound    Key = "error.product_not_found"
	KeyErrItemNotInCart      Key = "error.item_not_in_cart"
	KeyErrInvalidQuantity    Key = "error.invalid_quantity"
	KeyErrQuantityTooLarge   Key = "error.quantity_too_large"
	KeyErrSessionRequired    Key = "error.session_required"
	KeyErrCatalogUnavailable Key = "error.catalog_unavailable"
	KeyErrSessionConflict    Key = "error.session_conflict"
	KeyErrSessionUnavailable Key = "error.session_unavailable"
	KeyErrValidation         Key = "error.validation"
	KeyErrRateLimited        Key = "error.rate_limited"
	KeyErrInternal           Key = "error.internal"
)

var defaults = map[Key]string{
	KeyCartEmpty:       "Your cart is empty",
	KeyCartItems:       "Items",
	KeyCartTotal:       "Total",
	KeyCartItemAdded:   "Added to cart",
	KeyCartItemRemoved: "Removed from cart",
	KeyCartCleared:     "Cart cleared",

	KeyCatalogLoading:   "Loading products",
	KeyCatalogNoResults: "No products match your filters",
	KeyCatalogFeatured:  "Featured",
	KeyFilterAll:        "All categories",
	KeyFilterSearch:     "Search",
	KeyFilterPrice:      "Price range",

	KeyErrProductNotFound:    "Product not found",
	KeyErrItemNotInCart:      "This item is not in your cart",
	KeyErrInvalidQuantity:    "Quantity must be at least 1",
	KeyErrQuantityTooLarge:   "Quantity exceeds the per-item limit",
	KeyErrSessionRequired:    "A session is required",
	KeyErrCatalogUnavailable: "The catalog is temporarily unavailable",
	KeyErrSessionConflict:    "Your session was updated elsewhere, please retry",
	KeyErrSessionUnavailable: "Your cart could not be saved, please retry",
	KeyErrValidation:         "Request validation failed",
	KeyErrRateLimited:        "Too many requests, please slow down",
	KeyErrInternal:           "An internal error occurred",
}

// Keys returns every known key.
func Keys() []Key {
	keys := make([]Key, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	return keys
}

// Default returns the built-in text for k.
func (k Key) Default() string {
	return defaults[k]
}

// Valid reports whether k is a known key.
func (k Key) Valid() bool {
	_, ok := defaults[k]
	return ok
}
