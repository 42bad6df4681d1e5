// Package seed generates a deterministic demo catalog and writes it to a
// writable catalog source.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/slug"
)

// DefaultProducts is the catalog size used when none is requested.
const DefaultProducts = 200

// namespace scopes generated IDs so that re-runs upsert the same rows.
var namespace = uuid.MustParse("6f1c0a52-8d4e-4b57-9a0e-2f7a3c9b1d64")

// Writer is the write side of a catalog store.
type Writer interface {
	UpsertCategory(ctx context.Context, c domain.Category, sortOrder int) error
	UpsertProduct(ctx context.Context, p domain.Product) error
}

type categoryDef struct {
	name  string
	nouns []string
	min   int64
	max   int64
}

var categoryDefs = []categoryDef{
	{"Women's Clothing", []string{"Dress", "Tunic", "Blouse", "Skirt", "Cardigan"}, 2_000, 25_000},
	{"Men's Clothing", []string{"Shirt", "Chino", "Jacket", "Polo", "Sweater"}, 2_500, 30_000},
	{"Shoes", []string{"Sneaker", "Loafer", "Boot", "Sandal"}, 4_000, 35_000},
	{"Bags", []string{"Tote", "Backpack", "Clutch", "Crossbody"}, 3_000, 40_000},
	{"Home & Living", []string{"Lamp", "Cushion", "Vase", "Throw", "Mug"}, 800, 15_000},
	{"Accessories", []string{"Scarf", "Belt", "Watch", "Sunglasses"}, 1_000, 20_000},
}

var adjectives = []string{
	"Classic", "Linen", "Oversized", "Slim", "Vintage", "Organic", "Knitted",
	"Pleated", "Leather", "Everyday", "Soft", "Relaxed",
}

var colors = []string{"Black", "Ivory", "Navy", "Olive", "Camel", "Rose", "Grey", "Teal"}

// Catalog is a generated set of categories and products.
type Catalog struct {
	Categories []domain.Category
	Products   []domain.Product
}

// Generate builds n products spread across the demo categories. The same
// n and seed always produce the same catalog.
func Generate(n int, seed uint64) Catalog {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	out := Catalog{Categories: make([]domain.Category, 0, len(categoryDefs))}
	for _, def := range categoryDefs {
		out.Categories = append(out.Categories, domain.Category{
			ID:   uuid.NewSHA1(namespace, []byte("category:"+def.name)).String(),
			Name: def.name,
			Slug: slug.Generate(def.name),
		})
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out.Products = make([]domain.Product, 0, max(n, 0))
	for i := range max(n, 0) {
		ci := i % len(categoryDefs)
		def := categoryDefs[ci]

		name := fmt.Sprintf("%s %s %s",
			adjectives[rng.IntN(len(adjectives))],
			colors[rng.IntN(len(colors))],
			def.nouns[rng.IntN(len(def.nouns))],
		)
		// Round to whole units minus a cent, e.g. 149.99.
		price := (def.min+rng.Int64N(def.max-def.min))/100*100 + 99

		p := domain.Product{
			ID:          uuid.NewSHA1(namespace, []byte("product:"+strconv.Itoa(i))).String(),
			Name:        name,
			Slug:        slug.Generate(name + " " + strconv.Itoa(i+1)),
			Description: fmt.Sprintf("%s from our %s collection.", name, def.name),
			CategoryID:  out.Categories[ci].ID,
			Price:       domain.Money(price),
			Stock:       rng.IntN(200),
			ImageURL:    fmt.Sprintf("https://picsum.photos/seed/sf-%d/600/800", i+1),
			IsFeatured:  rng.IntN(10) == 0,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		if rng.IntN(4) == 0 {
			pct := 10 + rng.Int64N(41) // 10-50% off
			p.DiscountPrice = domain.MoneyPtr(domain.Money(price - price*pct/100))
		}
		out.Products = append(out.Products, p)
	}
	return out
}

// Write upserts every category, then every product.
func Write(ctx context.Context, w Writer, c Catalog, logger *slog.Logger) error {
	for i, cat := range c.Categories {
		if err := w.UpsertCategory(ctx, cat, i+1); err != nil {
			return fmt.Errorf("seed category %q: %w", cat.Name, err)
		}
	}
	for i, p := range c.Products {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.UpsertProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		if (i+1)%100 == 0 {
			logger.DebugContext(ctx, "seeded products", slog.Int("count", i+1))
		}
	}
	logger.InfoContext(ctx, "catalog seeded",
		slog.Int("categories", len(c.Categories)),
		slog.Int("products", len(c.Products)),
	)
	return nil
}
