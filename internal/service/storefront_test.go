package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/i18n"
	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/pagination"
)

// --- Mock Source ---

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockSource) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockSource) ListFeatured(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockSource) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockSource) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// --- Fakes ---

type memorySessions struct {
	mu     sync.Mutex
	stores map[string]*store.Store
	err    error
	commit store.Committer
}

func (m *memorySessions) Get(_ context.Context, sessionID string) (*store.Store, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stores == nil {
		m.stores = make(map[string]*store.Store)
	}
	st, ok := m.stores[sessionID]
	if !ok {
		var opts []store.Option
		if m.commit != nil {
			opts = append(opts, store.WithCommitter(m.commit))
		}
		st = store.New(domain.NewState(), opts...)
		m.stores[sessionID] = st
	}
	return st, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

// --- Test Helpers ---

type fixture struct {
	svc       *StorefrontService
	source    *mockSource
	sessions  *memorySessions
	publisher *recordingPublisher
}

func newFixture() *fixture {
	log := logger.Discard()
	src := &mockSource{}
	sessions := &memorySessions{}
	pub := &recordingPublisher{}
	svc := NewStorefrontService(sessions, src, catalog.NewLoader(src, log, 0), event.NewProducer(pub, log), log)
	return &fixture{svc: svc, source: src, sessions: sessions, publisher: pub}
}

var (
	lamp = domain.Product{ID: "p1", Name: "Lamp", Slug: "lamp", CategoryID: "c-home", Price: 4000}
	mug  = domain.Product{ID: "p2", Name: "Mug", Slug: "mug", CategoryID: "c-home", Price: 1200, DiscountPrice: domain.MoneyPtr(900)}
)

func (f *fixture) seedCatalog(t *testing.T, sessionID string, products ...domain.Product) {
	t.Helper()
	st, err := f.sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	st.Dispatch(context.Background(), domain.ReplaceProducts{Products: products})
}

func requireAppError(t *testing.T, err error, code, key string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, key, appErr.MessageKey)
}

// --- Cart ---

func TestCart_Empty(t *testing.T) {
	f := newFixture()

	cart, err := f.svc.Cart(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, domain.Money(0), cart.TotalAmount)
}

func TestCart_MissingSession(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Cart(context.Background(), "")
	requireAppError(t, err, "INVALID_INPUT", string(i18n.KeyErrSessionRequired))
}

func TestCart_SessionBackendDown(t *testing.T) {
	f := newFixture()
	f.sessions.err = errors.New("redis down")

	_, err := f.svc.Cart(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, 500, apperrors.HTTPStatus(err))
}

// --- AddToCart ---

func TestAddToCart_FromLoadedCatalog(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp, mug)

	cart, err := f.svc.AddToCart(context.Background(), "s1", "p2", 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, domain.Money(900), cart.Items[0].UnitPrice)
	assert.Equal(t, 3, cart.TotalItems)
	assert.Equal(t, domain.Money(2700), cart.TotalAmount)
	assert.Equal(t, []string{event.TopicCartUpdated}, f.publisher.topics)
	f.source.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything)
}

func TestAddToCart_FallsBackToSource(t *testing.T) {
	f := newFixture()
	p := lamp
	f.source.On("GetProduct", mock.Anything, "p1").Return(&p, nil).Once()

	cart, err := f.svc.AddToCart(context.Background(), "s1", "p1", 2)
	require.NoError(t, err)

	assert.Equal(t, domain.Money(8000), cart.TotalAmount)
	f.source.AssertExpectations(t)
}

func TestAddToCart_MergesQuantity(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	cart, err := f.svc.AddToCart(ctx, "s1", "p1", 4)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, domain.Money(20000), cart.TotalAmount)
}

func TestAddToCart_Validation(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int
		key       i18n.Key
	}{
		{"missing product", "", 1, ""},
		{"zero quantity", "p1", 0, i18n.KeyErrInvalidQuantity},
		{"negative quantity", "p1", -2, i18n.KeyErrInvalidQuantity},
		{"too many", "p1", MaxQuantityPerItem + 1, i18n.KeyErrQuantityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.AddToCart(context.Background(), "s1", tt.productID, tt.quantity)
			requireAppError(t, err, "INVALID_INPUT", string(tt.key))
			assert.Empty(t, f.publisher.topics)
		})
	}
}

func TestAddToCart_CombinedQuantityLimit(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", "p1", MaxQuantityPerItem)
	require.NoError(t, err)

	_, err = f.svc.AddToCart(ctx, "s1", "p1", 1)
	requireAppError(t, err, "INVALID_INPUT", string(i18n.KeyErrQuantityTooLarge))
}

func TestAddToCart_ProductNotFound(t *testing.T) {
	f := newFixture()
	f.source.On("GetProduct", mock.Anything, "ghost").Return(nil, apperrors.NotFound("product", "ghost"))

	_, err := f.svc.AddToCart(context.Background(), "s1", "ghost", 1)
	requireAppError(t, err, "NOT_FOUND", string(i18n.KeyErrProductNotFound))

	cart, _ := f.svc.Cart(context.Background(), "s1")
	assert.True(t, cart.IsEmpty())
}

func TestAddToCart_SourceDown(t *testing.T) {
	f := newFixture()
	f.source.On("GetProduct", mock.Anything, "p1").Return(nil, errors.New("connection refused"))

	_, err := f.svc.AddToCart(context.Background(), "s1", "p1", 1)
	requireAppError(t, err, "SERVICE_UNAVAILABLE", string(i18n.KeyErrCatalogUnavailable))
}

func TestAddToCart_PublishFailureIsNotSurfaced(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp)
	f.publisher.err = errors.New("broker down")

	cart, err := f.svc.AddToCart(context.Background(), "s1", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.TotalItems)
}

func TestAddToCart_ConcurrentAddsRespectLimit(t *testing.T) {
	f := newFixture()
	p := lamp
	f.source.On("GetProduct", mock.Anything, "p1").
		Run(func(mock.Arguments) { time.Sleep(20 * time.Millisecond) }).
		Return(&p, nil)

	const quantity = 60
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.AddToCart(context.Background(), "s1", "p1", quantity)
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			requireAppError(t, err, "INVALID_INPUT", string(i18n.KeyErrQuantityTooLarge))
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	cart, err := f.svc.Cart(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, quantity, cart.Items[0].Quantity)
	assert.Equal(t, []string{event.TopicCartUpdated}, f.publisher.topics)
}

func TestCartWrites_SessionSaveFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		key  i18n.Key
	}{
		{"backend down", apperrors.Unavailable("session could not be saved", errors.New("i/o timeout")), "SERVICE_UNAVAILABLE", i18n.KeyErrSessionUnavailable},
		{"conflict", apperrors.Conflict("session was modified concurrently"), "CONFLICT", i18n.KeyErrSessionConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.sessions.commit = func(_ context.Context, a domain.Action, _ domain.State) error {
				if domain.IsCartAction(a) {
					return tt.err
				}
				return nil
			}
			f.seedCatalog(t, "s1", lamp)
			ctx := context.Background()

			_, err := f.svc.AddToCart(ctx, "s1", "p1", 1)
			requireAppError(t, err, tt.code, string(tt.key))

			_, err = f.svc.ClearCart(ctx, "s1")
			requireAppError(t, err, tt.code, string(tt.key))

			cart, err := f.svc.Cart(ctx, "s1")
			require.NoError(t, err)
			assert.True(t, cart.IsEmpty())
			assert.Empty(t, f.publisher.topics)
		})
	}
}

// --- RemoveFromCart / SetCartQuantity / ClearCart ---

func TestRemoveFromCart(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp, mug)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, "s1", "p2", 2)
	require.NoError(t, err)

	cart, err := f.svc.RemoveFromCart(ctx, "s1", "p1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)
	assert.Equal(t, domain.Money(1800), cart.TotalAmount)
}

func TestRemoveFromCart_NotInCart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.RemoveFromCart(context.Background(), "s1", "p1")
	requireAppError(t, err, "NOT_FOUND", string(i18n.KeyErrItemNotInCart))
	assert.Empty(t, f.publisher.topics)
}

func TestRemoveFromCart_ConcurrentRemovesPublishOnce(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	f.publisher.topics = nil

	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	notFound := 0
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.RemoveFromCart(ctx, "s1", "p1"); errors.Is(err, apperrors.ErrNotFound) {
				mu.Lock()
				notFound++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, n-1, notFound)
	assert.Equal(t, []string{event.TopicCartUpdated}, f.publisher.topics)
}

func TestSetCartQuantity(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", "p1", 1)
	require.NoError(t, err)

	cart, err := f.svc.SetCartQuantity(ctx, "s1", "p1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.TotalItems)
	assert.Equal(t, domain.Money(28000), cart.TotalAmount)

	cart, err = f.svc.SetCartQuantity(ctx, "s1", "p1", 0)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestSetCartQuantity_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.SetCartQuantity(ctx, "s1", "p1", -1)
	requireAppError(t, err, "INVALID_INPUT", string(i18n.KeyErrInvalidQuantity))

	_, err = f.svc.SetCartQuantity(ctx, "s1", "p1", MaxQuantityPerItem+1)
	requireAppError(t, err, "INVALID_INPUT", string(i18n.KeyErrQuantityTooLarge))

	_, err = f.svc.SetCartQuantity(ctx, "s1", "p1", 3)
	requireAppError(t, err, "NOT_FOUND", string(i18n.KeyErrItemNotInCart))
}

func TestClearCart(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", "p1", 2)
	require.NoError(t, err)

	cart, err := f.svc.ClearCart(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, []string{event.TopicCartUpdated, event.TopicCartCleared}, f.publisher.topics)
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", "p1", 1)
	require.NoError(t, err)

	other, err := f.svc.Cart(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

// --- Catalog ---

func TestLoadCatalog(t *testing.T) {
	f := newFixture()
	categories := []domain.Category{{ID: "c-home", Name: "Home", Slug: "home"}}
	f.source.On("ListProducts", mock.Anything).Return([]domain.Product{lamp, mug}, nil)
	f.source.On("ListCategories", mock.Anything).Return(categories, nil)
	f.source.On("ListFeatured", mock.Anything).Return([]domain.Product{mug}, nil)

	state, err := f.svc.LoadCatalog(context.Background(), "s1")
	require.NoError(t, err)

	assert.Len(t, state.Products, 2)
	assert.Equal(t, categories, state.Categories)
	assert.Len(t, state.Featured, 1)
	assert.False(t, state.Loading)
	assert.Nil(t, state.Error)
}

func TestLoadCatalog_Failure(t *testing.T) {
	f := newFixture()
	f.source.On("ListProducts", mock.Anything).Return(nil, errors.New("timeout"))
	f.source.On("ListCategories", mock.Anything).Return([]domain.Category{}, nil).Maybe()
	f.source.On("ListFeatured", mock.Anything).Return([]domain.Product{}, nil).Maybe()

	state, err := f.svc.LoadCatalog(context.Background(), "s1")
	requireAppError(t, err, "SERVICE_UNAVAILABLE", string(i18n.KeyErrCatalogUnavailable))

	assert.False(t, state.Loading)
	require.NotNil(t, state.Error)
	assert.Contains(t, *state.Error, "timeout")

	cleared, err := f.svc.ClearError(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, cleared.Error)
}

func TestViewProduct(t *testing.T) {
	f := newFixture()
	p := lamp
	f.source.On("GetProduct", mock.Anything, "p1").Return(&p, nil)

	got, err := f.svc.ViewProduct(context.Background(), "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)

	state, err := f.svc.Catalog(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, state.Current)
	assert.Equal(t, "p1", state.Current.ID)

	// The current product now satisfies cart lookups without a fetch.
	_, err = f.svc.AddToCart(context.Background(), "s1", "p1", 1)
	require.NoError(t, err)
	f.source.AssertNumberOfCalls(t, "GetProduct", 1)
}

func TestViewProduct_NotFound(t *testing.T) {
	f := newFixture()
	f.source.On("GetProduct", mock.Anything, "nope").Return(nil, apperrors.NotFound("product", "nope"))

	_, err := f.svc.ViewProduct(context.Background(), "s1", "nope")
	requireAppError(t, err, "NOT_FOUND", string(i18n.KeyErrProductNotFound))
}

func TestUpdateFilter_ShallowMerge(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	search := "lamp"
	category := "home"

	_, err := f.svc.UpdateFilter(ctx, "s1", domain.FilterPatch{Search: &search})
	require.NoError(t, err)
	state, err := f.svc.UpdateFilter(ctx, "s1", domain.FilterPatch{Category: &category})
	require.NoError(t, err)

	assert.Equal(t, "lamp", state.Filter.Search)
	assert.Equal(t, "home", state.Filter.Category)
	assert.Equal(t, domain.DefaultPriceCeiling, state.Filter.PriceRange.Max)
}

func TestUpdateFilter_NegativeBound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateFilter(context.Background(), "s1", domain.FilterPatch{
		PriceRange: &domain.PriceRange{Min: -1, Max: 100},
	})
	requireAppError(t, err, "INVALID_INPUT", "")
}

func TestVisibleProducts(t *testing.T) {
	f := newFixture()
	f.seedCatalog(t, "s1", lamp, mug)
	ctx := context.Background()
	maxPrice := domain.PriceRange{Min: 0, Max: 1000}

	_, err := f.svc.UpdateFilter(ctx, "s1", domain.FilterPatch{PriceRange: &maxPrice})
	require.NoError(t, err)

	page, err := f.svc.VisibleProducts(ctx, "s1", pagination.Params{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "p2", page.Data[0].ID)
	assert.Equal(t, 1, page.TotalCount)

	// Filtering never touches the stored lists.
	state, _ := f.svc.Catalog(ctx, "s1")
	assert.Len(t, state.Products, 2)
}
