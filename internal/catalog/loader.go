package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/domain"
)

// Dispatcher applies actions to a session's state. *store.Store implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, action domain.Action) domain.State
}

// Loader fetches catalog data from a Source and feeds it into a store
// through replace actions.
type Loader struct {
	source  Source
	logger  *slog.Logger
	timeout time.Duration
}

// NewLoader creates a loader. A zero timeout means the caller's context
// alone bounds a load.
func NewLoader(source Source, logger *slog.Logger, timeout time.Duration) *Loader {
	return &Loader{
		source:  source,
		logger:  logger,
		timeout: timeout,
	}
}

// Load fetches products, categories and featured products concurrently.
// The loading flag is raised first. On success the three lists are replaced
// and loading ends; on failure the error message is recorded, which also
// ends loading, and the error is returned.
func (l *Loader) Load(ctx context.Context, d Dispatcher) error {
	d.Dispatch(ctx, domain.ClearError{})
	d.Dispatch(ctx, domain.SetLoading{Loading: true})

	fetchCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var (
		products   []domain.Product
		categories []domain.Category
		featured   []domain.Product
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		products, err = l.source.ListProducts(gctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = l.source.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		featured, err = l.source.ListFeatured(gctx)
		if err != nil {
			return fmt.Errorf("list featured products: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		d.Dispatch(ctx, domain.SetError{Message: err.Error()})
		l.logger.WarnContext(ctx, "catalog load failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return err
	}

	d.Dispatch(ctx, domain.ReplaceProducts{Products: products})
	d.Dispatch(ctx, domain.ReplaceCategories{Categories: categories})
	d.Dispatch(ctx, domain.ReplaceFeatured{Products: featured})
	d.Dispatch(ctx, domain.SetLoading{Loading: false})

	l.logger.DebugContext(ctx, "catalog loaded",
		slog.Int("products", len(products)),
		slog.Int("categories", len(categories)),
		slog.Int("featured", len(featured)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// LoadProduct fetches one product and makes it the current product. A
// failure is recorded in the store and returned.
func (l *Loader) LoadProduct(ctx context.Context, d Dispatcher, id string) (*domain.Product, error) {
	fetchCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	p, err := l.source.GetProduct(fetchCtx, id)
	if err != nil {
		err = fmt.Errorf("get product %s: %w", id, err)
		d.Dispatch(ctx, domain.SetError{Message: err.Error()})
		return nil, err
	}

	d.Dispatch(ctx, domain.SetCurrentProduct{Product: p})
	return p, nil
}
