package domain

import (
	"slices"

	"github.com/google/uuid"
)

// newLineItemID generates line item identifiers. Tests may replace it.
var newLineItemID = func() string { return uuid.NewString() }

// ProductSnapshot is the denormalized copy of product fields taken when the
// product enters the cart. Later catalog changes do not touch it.
type ProductSnapshot struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	ImageURL      string `json:"image_url,omitempty"`
	CategoryID    string `json:"category_id,omitempty"`
	Price         Money  `json:"price"`
	DiscountPrice *Money `json:"discount_price,omitempty"`
}

// UnitPrice returns the price a new cart line captures for this snapshot.
func (s ProductSnapshot) UnitPrice() Money {
	if s.DiscountPrice != nil {
		return *s.DiscountPrice
	}
	return s.Price
}

// LineItem represents a single product row in the cart.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Product   ProductSnapshot `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice Money           `json:"unit_price"`
}

// Subtotal returns UnitPrice × Quantity.
func (li LineItem) Subtotal() Money {
	return li.UnitPrice.Times(li.Quantity)
}

// CartState is an immutable cart snapshot. Every operation returns a new
// snapshot with TotalItems and TotalAmount already recomputed.
type CartState struct {
	Items       []LineItem `json:"items"`
	TotalItems  int        `json:"total_items"`
	TotalAmount Money      `json:"total_amount"`
}

// NewCartState returns an empty cart.
func NewCartState() CartState {
	return CartState{Items: []LineItem{}}
}

// Add merges quantity into the line for product.ID, or appends a new line
// priced at the product's effective price. The captured unit price of an
// existing line is kept as is.
func (c CartState) Add(product ProductSnapshot, quantity int) CartState {
	items := slices.Clone(c.Items)

	if i := c.indexOf(product.ID); i >= 0 {
		items[i].Quantity += quantity
		return CartState{Items: items}.recompute()
	}

	items = append(items, LineItem{
		ID:        newLineItemID(),
		ProductID: product.ID,
		Product:   product,
		Quantity:  quantity,
		UnitPrice: product.UnitPrice(),
	})
	return CartState{Items: items}.recompute()
}

// Remove deletes the line for productID. Missing products are a no-op.
func (c CartState) Remove(productID string) CartState {
	i := c.indexOf(productID)
	if i < 0 {
		return c.recompute()
	}
	items := slices.Delete(slices.Clone(c.Items), i, i+1)
	return CartState{Items: items}.recompute()
}

// SetQuantity overwrites the quantity of the line for productID. A quantity
// of zero or less removes the line.
func (c CartState) SetQuantity(productID string, quantity int) CartState {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	i := c.indexOf(productID)
	if i < 0 {
		return c.recompute()
	}
	items := slices.Clone(c.Items)
	items[i].Quantity = quantity
	return CartState{Items: items}.recompute()
}

// Clear empties the cart.
func (c CartState) Clear() CartState {
	return CartState{Items: []LineItem{}, TotalItems: 0, TotalAmount: 0}
}

// Find returns the line for productID.
func (c CartState) Find(productID string) (LineItem, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// Contains reports whether the cart has a line for productID.
func (c CartState) Contains(productID string) bool {
	return c.indexOf(productID) >= 0
}

// IsEmpty reports whether the cart has no lines.
func (c CartState) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c CartState) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// recompute folds the line items into TotalItems and TotalAmount.
func (c CartState) recompute() CartState {
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	var count int
	var total Money
	for _, item := range c.Items {
		count += item.Quantity
		total += item.Subtotal()
	}
	c.TotalItems = count
	c.TotalAmount = total
	return c
}
