package domain

// Action type identifiers.
const (
	ActionCartAdd         = "cart/add"
	ActionCartRemove      = "cart/remove"
	ActionCartSetQuantity = "cart/set_quantity"
	ActionCartClear       = "cart/clear"

	ActionCatalogSetProducts   = "catalog/set_products"
	ActionCatalogSetCategories = "catalog/set_categories"
	ActionCatalogSetFeatured   = "catalog/set_featured"
	ActionCatalogSetCurrent    = "catalog/set_current"
	ActionCatalogSetLoading    = "catalog/set_loading"
	ActionCatalogSetError      = "catalog/set_error"
	ActionCatalogClearError    = "catalog/clear_error"
	ActionCatalogUpdateFilter  = "catalog/update_filter"
)

// State is the whole per-session state tree.
type State struct {
	Cart     CartState     `json:"cart"`
	Products ProductsState `json:"products"`
}

// NewState returns an empty cart and catalog.
func NewState() State {
	return State{
		Cart:     NewCartState(),
		Products: NewProductsState(),
	}
}

// Action is a command applied to State by Reduce.
type Action interface {
	Type() string
}

// AddToCart adds Quantity units of Product.
type AddToCart struct {
	Product  ProductSnapshot
	Quantity int
}

// RemoveFromCart removes the line for ProductID.
type RemoveFromCart struct {
	ProductID string
}

// SetCartQuantity overwrites the quantity for ProductID.
type SetCartQuantity struct {
	ProductID string
	Quantity  int
}

// ClearCart empties the cart.
type ClearCart struct{}

// ReplaceProducts replaces the product list.
type ReplaceProducts struct {
	Products []Product
}

// ReplaceCategories replaces the category list.
type ReplaceCategories struct {
	Categories []Category
}

// ReplaceFeatured replaces the featured product list.
type ReplaceFeatured struct {
	Products []Product
}

// SetCurrentProduct sets or, with a nil Product, clears the viewed product.
type SetCurrentProduct struct {
	Product *Product
}

// SetLoading sets the catalog loading flag.
type SetLoading struct {
	Loading bool
}

// SetError records a catalog fetch failure.
type SetError struct {
	Message string
}

// ClearError drops the catalog error.
type ClearError struct{}

// UpdateFilter merges a partial filter.
type UpdateFilter struct {
	Patch FilterPatch
}

func (AddToCart) Type() string         { return ActionCartAdd }
func (RemoveFromCart) Type() string    { return ActionCartRemove }
func (SetCartQuantity) Type() string   { return ActionCartSetQuantity }
func (ClearCart) Type() string         { return ActionCartClear }
func (ReplaceProducts) Type() string   { return ActionCatalogSetProducts }
func (ReplaceCategories) Type() string { return ActionCatalogSetCategories }
func (ReplaceFeatured) Type() string   { return ActionCatalogSetFeatured }
func (SetCurrentProduct) Type() string { return ActionCatalogSetCurrent }
func (SetLoading) Type() string        { return ActionCatalogSetLoading }
func (SetError) Type() string          { return ActionCatalogSetError }
func (ClearError) Type() string        { return ActionCatalogClearError }
func (UpdateFilter) Type() string      { return ActionCatalogUpdateFilter }

// IsCartAction reports whether the action touches the cart slice.
func IsCartAction(a Action) bool {
	switch a.(type) {
	case AddToCart, RemoveFromCart, SetCartQuantity, ClearCart:
		return true
	default:
		return false
	}
}

// Reduce applies an action to the state and returns the new state. Unknown
// actions return the state unchanged.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case AddToCart:
		s.Cart = s.Cart.Add(act.Product, act.Quantity)
	case RemoveFromCart:
		s.Cart = s.Cart.Remove(act.ProductID)
	case SetCartQuantity:
		s.Cart = s.Cart.SetQuantity(act.ProductID, act.Quantity)
	case ClearCart:
		s.Cart = s.Cart.Clear()
	case ReplaceProducts:
		s.Products = s.Products.SetProducts(act.Products)
	case ReplaceCategories:
		s.Products = s.Products.SetCategories(act.Categories)
	case ReplaceFeatured:
		s.Products = s.Products.SetFeatured(act.Products)
	case SetCurrentProduct:
		s.Products = s.Products.SetCurrent(act.Product)
	case SetLoading:
		s.Products = s.Products.SetLoading(act.Loading)
	case SetError:
		s.Products = s.Products.SetError(act.Message)
	case ClearError:
		s.Products = s.Products.ClearError()
	case UpdateFilter:
		s.Products = s.Products.MergeFilter(act.Patch)
	}
	return s
}
