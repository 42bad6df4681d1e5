// Package httpsource reads the catalog from the product API over HTTP.
package httpsource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const serviceName = "product-api"

// pageSize is the per_page value used when walking the product listing.
const pageSize = 100

// maxPages stops a listing walk against a misbehaving server.
const maxPages = 500

type envelope[T any] struct {
	Data T `json:"data"`
}

type page struct {
	Data       []domain.Product `json:"data"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

// Source implements catalog.Source against the product API.
type Source struct {
	baseURL string
	client  httpclient.Doer
}

// New creates a source rooted at baseURL (e.g. "http://product:8001").
// client is usually a *httpclient.CircuitBreakerClient.
func New(baseURL string, client httpclient.Doer) *Source {
	return &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// ListProducts walks every page of /api/v1/products.
func (s *Source) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	for n := 1; n <= maxPages; n++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(n))
		q.Set("per_page", strconv.Itoa(pageSize))

		var p page
		if err := httpclient.GetJSON(ctx, s.client, s.endpoint("/api/v1/products", q), serviceName, &p); err != nil {
			return nil, err
		}
		products = append(products, p.Data...)

		if len(p.Data) == 0 || n >= p.TotalPages {
			return products, nil
		}
	}
	return nil, fmt.Errorf("%s: product listing exceeded %d pages", serviceName, maxPages)
}

// ListCategories reads /api/v1/categories.
func (s *Source) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var env envelope[[]domain.Category]
	if err := httpclient.GetJSON(ctx, s.client, s.endpoint("/api/v1/categories", nil), serviceName, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []domain.Category{}, nil
	}
	return env.Data, nil
}

// ListFeatured reads /api/v1/products/featured.
func (s *Source) ListFeatured(ctx context.Context) ([]domain.Product, error) {
	var env envelope[[]domain.Product]
	if err := httpclient.GetJSON(ctx, s.client, s.endpoint("/api/v1/products/featured", nil), serviceName, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []domain.Product{}, nil
	}
	return env.Data, nil
}

// GetProduct reads /api/v1/products/{id}.
func (s *Source) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var env envelope[*domain.Product]
	path := "/api/v1/products/" + url.PathEscape(id)
	if err := httpclient.GetJSON(ctx, s.client, s.endpoint(path, nil), serviceName, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%s: empty product payload for %s", serviceName, id)
	}
	return env.Data, nil
}

// Ping calls the product API liveness endpoint.
func (s *Source) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("/health/live", nil), http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	return resp.Body.Close()
}

func (s *Source) endpoint(path string, q url.Values) string {
	if len(q) == 0 {
		return s.baseURL + path
	}
	return s.baseURL + path + "?" + q.Encode()
}
