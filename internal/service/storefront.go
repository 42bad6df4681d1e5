package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/i18n"
	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart line.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct lines allowed in a cart.
	MaxItemsPerCart = 50
)

var actionsDispatched = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_actions_dispatched_total",
		Help: "Actions dispatched to session stores, by action type.",
	},
	[]string{"type"},
)

// SessionStores hands out the live store of a session.
type SessionStores interface {
	Get(ctx context.Context, sessionID string) (*store.Store, error)
}

// StorefrontService orchestrates cart and catalog operations on a session.
type StorefrontService struct {
	sessions SessionStores
	source   catalog.Source
	loader   *catalog.Loader
	producer *event.Producer
	logger   *slog.Logger
}

// NewStorefrontService creates a new storefront service.
func NewStorefrontService(sessions SessionStores, source catalog.Source, loader *catalog.Loader, producer *event.Producer, logger *slog.Logger) *StorefrontService {
	return &StorefrontService{
		sessions: sessions,
		source:   source,
		loader:   loader,
		producer: producer,
		logger:   logger,
	}
}

func (s *StorefrontService) session(ctx context.Context, sessionID string) (*store.Store, error) {
	st, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Status < 500 {
			if appErr.MessageKey == "" {
				appErr = appErr.WithKey(string(i18n.KeyErrSessionRequired))
			}
			return nil, appErr
		}
		return nil, fmt.Errorf("open session: %w", err)
	}
	return st, nil
}

func (s *StorefrontService) dispatch(ctx context.Context, st *store.Store, action domain.Action) domain.State {
	actionsDispatched.WithLabelValues(action.Type()).Inc()
	return st.Dispatch(ctx, action)
}

// update applies the action decide picks as one step on st. Checks inside
// decide see the state the action is applied to.
func (s *StorefrontService) update(ctx context.Context, st *store.Store, decide store.Decider) (domain.State, error) {
	var applied domain.Action
	next, err := st.Update(ctx, func(cur domain.State) (domain.Action, error) {
		a, err := decide(cur)
		applied = a
		return a, err
	})
	if err != nil {
		return next, sessionWriteError(err)
	}
	if applied != nil {
		actionsDispatched.WithLabelValues(applied.Type()).Inc()
	}
	return next, nil
}

// apply is update for an action that needs no check.
func (s *StorefrontService) apply(ctx context.Context, st *store.Store, action domain.Action) (domain.State, error) {
	return s.update(ctx, st, func(domain.State) (domain.Action, error) { return action, nil })
}

// Cart returns the session's cart.
func (s *StorefrontService) Cart(ctx context.Context, sessionID string) (domain.CartState, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.CartState{}, err
	}
	return st.State().Cart, nil
}

// AddToCart adds quantity units of a product. The product is looked up in
// the session's loaded catalog first and fetched from the source otherwise.
func (s *StorefrontService) AddToCart(ctx context.Context, sessionID, productID string, quantity int) (domain.CartState, error) {
	if productID == "" {
		return domain.CartState{}, apperrors.InvalidInput("product id is required")
	}
	if quantity <= 0 {
		return domain.CartState{}, apperrors.InvalidInput("quantity must be greater than 0").
			WithKey(string(i18n.KeyErrInvalidQuantity))
	}
	if quantity > MaxQuantityPerItem {
		return domain.CartState{}, quantityTooLarge()
	}

	st, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.CartState{}, err
	}

	// Fail fast before the product lookup; checkCartLimits runs again below
	// against the state the add is applied to.
	if err := checkCartLimits(st.State().Cart, productID, quantity); err != nil {
		return domain.CartState{}, err
	}

	product, err := s.findProduct(ctx, st.State().Products, productID)
	if err != nil {
		return domain.CartState{}, err
	}

	next, err := s.update(ctx, st, func(cur domain.State) (domain.Action, error) {
		if err := checkCartLimits(cur.Cart, productID, quantity); err != nil {
			return nil, err
		}
		return domain.AddToCart{Product: product.Snapshot(), Quantity: quantity}, nil
	})
	if err != nil {
		return domain.CartState{}, err
	}
	s.publishUpdated(ctx, sessionID, domain.ActionCartAdd, next.Cart)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return next.Cart, nil
}

// RemoveFromCart deletes the cart line for productID.
func (s *StorefrontService) RemoveFromCart(ctx context.Context, sessionID, productID string) (domain.CartState, error) {
	if productID == "" {
		return domain.CartState{}, apperrors.InvalidInput("product id is required")
	}

	st, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.CartState{}, err
	}
	next, err := s.update(ctx, st, func(cur domain.State) (domain.Action, error) {
		if !cur.Cart.Contains(productID) {
			return nil, itemNotInCart(productID)
		}
		return domain.RemoveFromCart{ProductID: productID}, nil
	})
	if err != nil {
		return domain.CartState{}, err
	}
	s.publishUpdated(ctx, sessionID, domain.ActionCartRemove, next.Cart)

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
	)
	return next.Cart, nil
}

// SetCartQuantity overwrites the quantity of a cart line. Zero removes it.
func (s *StorefrontService) SetCartQuantity(ctx context.Context, sessionID, productID string, quantity int) (domain.CartState, error) {
	if productID == "" {
		return domain.CartState{}, apperrors.InvalidInput("product id is required")
	}
	if quantity < 0 {
		return domain.CartState{}, apperrors.InvalidInput("quantity must not be negative").
			WithKey(string(i18n.KeyErrInvalidQuantity))
	}
	if quantity > MaxQuantityPerItem {
		return domain.CartState{}, quantityTooLarge()
	}

	st, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.CartState{}, err
	}
	next, err := s.update(ctx, st, func(cur domain.State) (domain.Action, error) {
		if !cur.Cart.Contains(productID) {
			return nil, itemNotInCart(productID)
		}
		return domain.SetCartQuantity{ProductID: productID, Quantity: quantity}, nil
	})
	if err != nil {
		return domain.CartState{}, err
	}
	s.publishUpdated(ctx, sessionID, domain.ActionCartSetQuantity, next.Cart)

	s.logger.InfoContext(ctx, "cart item quantity set",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return next.Cart, nil
}

// ClearCart empties the cart.
func (s *StorefrontService) ClearCart(ctx context.Context, sessionID string) (domain.CartState, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.CartState{}, err
	}

	next, err := s.apply(ctx, st, domain.ClearCart{})
	if err != nil {
		return domain.CartState{}, err
	}
	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("session_id", sessionID))
	return next.Cart, nil
}

// LoadCatalog refreshes the session's catalog from the source.
func (s *StorefrontService) LoadCatalog(ctx context.Context, sessionID string) (domain.ProductsState, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.ProductsState{}, err
	}

	if err := s.loader.Load(ctx, s.counting(st)); err != nil {
		return st.State().Products, apperrors.Unavailable("catalog is unavailable", err).
			WithKey(string(i18n.KeyErrCatalogUnavailable))
	}
	return st.State().Products, nil
}

// ViewProduct fetches a product and makes it the session's current product.
func (s *StorefrontService) ViewProduct(ctx context.Context, sessionID, productID string) (*domain.Product, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	st, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	p, err := s.loader.LoadProduct(ctx, s.counting(st), productID)
	if err != nil {
		return nil, sourceError(productID, err)
	}
	return p, nil
}

// UpdateFilter shallow-merges patch into the session's catalog filter.
func (s *StorefrontService) UpdateFilter(ctx context.Context, sessionID string, patch domain.FilterPatch) (domain.ProductsState, error) {
	if patch.PriceRange != nil && (patch.PriceRange.Min < 0 || patch.PriceRange.Max < 0) {
		return domain.ProductsState{}, apperrors.InvalidInput("price range bounds must not be negative")
	}

	st, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.ProductsState{}, err
	}

	next, err := s.apply(ctx, st, domain.UpdateFilter{Patch: patch})
	if err != nil {
		return domain.ProductsState{}, err
	}
	return next.Products, nil
}

// ClearError drops the session's catalog error.
func (s *StorefrontService) ClearError(ctx context.Context, sessionID string) (domain.ProductsState, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.ProductsState{}, err
	}

	next, err := s.apply(ctx, st, domain.ClearError{})
	if err != nil {
		return domain.ProductsState{}, err
	}
	return next.Products, nil
}

// Catalog returns the session's full catalog state.
func (s *StorefrontService) Catalog(ctx context.Context, sessionID string) (domain.ProductsState, error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.ProductsState{}, err
	}
	return st.State().Products, nil
}

// VisibleProducts returns one page of products matching the session's filter.
func (s *StorefrontService) VisibleProducts(ctx context.Context, sessionID string, params pagination.Params) (pagination.Result[domain.Product], error) {
	st, err := s.session(ctx, sessionID)
	if err != nil {
		return pagination.Result[domain.Product]{}, err
	}
	return catalog.NewView(st.State().Products).Page(params), nil
}

func (s *StorefrontService) findProduct(ctx context.Context, state domain.ProductsState, productID string) (*domain.Product, error) {
	for _, list := range [][]domain.Product{state.Products, state.Featured} {
		for i := range list {
			if list[i].ID == productID {
				p := list[i]
				return &p, nil
			}
		}
	}
	if state.Current != nil && state.Current.ID == productID {
		p := *state.Current
		return &p, nil
	}

	p, err := s.source.GetProduct(ctx, productID)
	if err != nil {
		return nil, sourceError(productID, err)
	}
	return p, nil
}

func (s *StorefrontService) publishUpdated(ctx context.Context, sessionID, action string, cart domain.CartState) {
	if err := s.producer.PublishCartUpdated(ctx, sessionID, action, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// counting wraps st so loader dispatches show up in the action counter.
func (s *StorefrontService) counting(st *store.Store) catalog.Dispatcher {
	return dispatchFunc(func(ctx context.Context, a domain.Action) domain.State {
		return s.dispatch(ctx, st, a)
	})
}

type dispatchFunc func(ctx context.Context, a domain.Action) domain.State

func (f dispatchFunc) Dispatch(ctx context.Context, a domain.Action) domain.State {
	return f(ctx, a)
}

func sourceError(productID string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("product", productID).WithKey(string(i18n.KeyErrProductNotFound))
	}
	return apperrors.Unavailable("catalog is unavailable", err).
		WithKey(string(i18n.KeyErrCatalogUnavailable))
}

// checkCartLimits enforces the per-line and per-cart caps for adding
// quantity units of productID to cart.
func checkCartLimits(cart domain.CartState, productID string, quantity int) error {
	if line, ok := cart.Find(productID); ok {
		if line.Quantity+quantity > MaxQuantityPerItem {
			return apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem)).
				WithKey(string(i18n.KeyErrQuantityTooLarge))
		}
		return nil
	}
	if len(cart.Items) >= MaxItemsPerCart {
		return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
	}
	return nil
}

// sessionWriteError localizes a failed session snapshot write. Errors that
// already carry a key pass through.
func sessionWriteError(err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.MessageKey != "" {
		return err
	}
	switch {
	case errors.Is(err, apperrors.ErrConflict):
		return appErr.WithKey(string(i18n.KeyErrSessionConflict))
	case errors.Is(err, apperrors.ErrServiceUnavail):
		return appErr.WithKey(string(i18n.KeyErrSessionUnavailable))
	}
	return err
}

func quantityTooLarge() *apperrors.AppError {
	return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem)).
		WithKey(string(i18n.KeyErrQuantityTooLarge))
}

func itemNotInCart(productID string) *apperrors.AppError {
	return apperrors.NotFound("cart item", productID).WithKey(string(i18n.KeyErrItemNotInCart))
}
