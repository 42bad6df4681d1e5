package domain

import "time"

// Product represents a catalog product as served by the product API.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	CategoryID    string    `json:"category_id"`
	Price         Money     `json:"price"`
	DiscountPrice *Money    `json:"discount_price,omitempty"`
	Stock         int       `json:"stock"`
	ImageURL      string    `json:"image_url,omitempty"`
	IsFeatured    bool      `json:"is_featured"`
	CreatedAt     time.Time `json:"created_at"`
}

// Category represents a product category.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// EffectivePrice returns the discounted price when one is set, otherwise the list price.
func (p Product) EffectivePrice() Money {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// Snapshot captures the product fields a cart line keeps after the product is added.
func (p Product) Snapshot() ProductSnapshot {
	s := ProductSnapshot{
		ID:         p.ID,
		Name:       p.Name,
		Slug:       p.Slug,
		ImageURL:   p.ImageURL,
		CategoryID: p.CategoryID,
		Price:      p.Price,
	}
	if p.DiscountPrice != nil {
		s.DiscountPrice = MoneyPtr(*p.DiscountPrice)
	}
	return s
}
