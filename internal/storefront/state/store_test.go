package state

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/pkg/ident"
	"github.com/jcmexdev/storefront/internal/storefront/api"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/catalog"
	"github.com/jcmexdev/storefront/internal/storefront/storage"
)

// fakeBackend keeps a server-side cart in memory. When gate is set, cart
// mutations block until it is closed.
type fakeBackend struct {
	mu    sync.Mutex
	token string
	calls []string

	products    []catalog.Product
	productsErr error

	serverCart []cart.Item
	cartErr    error
	gate       chan struct{}

	session    api.Session
	loginErr   error
	signupErr  error
	profile    api.User
	profileErr error

	order     api.Order
	orderErr  error
	dashboard api.Dashboard
	dashErr   error
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeBackend) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeBackend) ListProducts(context.Context) ([]catalog.Product, error) {
	f.record("ListProducts")
	return f.products, f.productsErr
}

func (f *fakeBackend) CreateProduct(_ context.Context, d catalog.Draft) (catalog.Product, error) {
	f.record("CreateProduct")
	return catalog.Product{ID: ident.String("new"), Title: d.Title, Price: d.Price, Category: d.Category}, nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, id ident.ID, d catalog.Draft) (catalog.Product, error) {
	f.record("UpdateProduct")
	return catalog.Product{ID: id, Title: d.Title, Price: d.Price, Category: d.Category}, nil
}

func (f *fakeBackend) DeleteProduct(context.Context, ident.ID) error {
	f.record("DeleteProduct")
	return nil
}

func (f *fakeBackend) mutateCart(call string, fn func([]cart.Item) []cart.Item) ([]cart.Item, error) {
	f.record(call)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	f.serverCart = fn(f.serverCart)
	return append([]cart.Item(nil), f.serverCart...), nil
}

func (f *fakeBackend) failCart(err error) {
	f.mu.Lock()
	f.cartErr = err
	f.mu.Unlock()
}

func (f *fakeBackend) Cart(context.Context) ([]cart.Item, error) {
	return f.mutateCart("Cart", func(items []cart.Item) []cart.Item { return items })
}

func (f *fakeBackend) AddToCart(_ context.Context, id ident.ID, qty int) ([]cart.Item, error) {
	return f.mutateCart("AddToCart", func(items []cart.Item) []cart.Item {
		return cart.Add(items, cart.Item{ID: id, Quantity: qty, Title: "server " + id.String()})
	})
}

func (f *fakeBackend) RemoveFromCart(_ context.Context, id ident.ID) ([]cart.Item, error) {
	return f.mutateCart("RemoveFromCart", func(items []cart.Item) []cart.Item { return cart.Remove(items, id) })
}

func (f *fakeBackend) UpdateCartItem(_ context.Context, id ident.ID, qty int) ([]cart.Item, error) {
	return f.mutateCart("UpdateCartItem", func(items []cart.Item) []cart.Item {
		return cart.SetQuantity(items, id, qty, "")
	})
}

func (f *fakeBackend) ClearCart(context.Context) ([]cart.Item, error) {
	return f.mutateCart("ClearCart", func([]cart.Item) []cart.Item { return nil })
}

func (f *fakeBackend) Signup(_ context.Context, email, _ string) (api.User, error) {
	f.record("Signup")
	return api.User{ID: "u1", Email: email}, f.signupErr
}

func (f *fakeBackend) Login(context.Context, string, string) (api.Session, error) {
	f.record("Login")
	return f.session, f.loginErr
}

func (f *fakeBackend) Logout(context.Context) error {
	f.record("Logout")
	return nil
}

func (f *fakeBackend) Profile(context.Context) (api.User, error) {
	f.record("Profile")
	return f.profile, f.profileErr
}

func (f *fakeBackend) Checkout(context.Context) (api.CheckoutSession, error) {
	f.record("Checkout")
	return api.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

func (f *fakeBackend) PlaceOrder(context.Context) (api.Order, error) {
	f.record("PlaceOrder")
	return f.order, f.orderErr
}

func (f *fakeBackend) Orders(context.Context) ([]api.Order, error) {
	f.record("Orders")
	return []api.Order{f.order}, nil
}

func (f *fakeBackend) Dashboard(context.Context) (api.Dashboard, error) {
	f.record("Dashboard")
	return f.dashboard, f.dashErr
}

func newStore(t *testing.T, b *fakeBackend, local storage.LocalStorage) *Store {
	t.Helper()
	s := New(b, local)
	t.Cleanup(s.Close)
	return s
}

func await(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("operation did not finish")
		return nil
	}
}

func persisted(t *testing.T, local storage.LocalStorage) []cart.Item {
	t.Helper()
	raw, err := local.GetItem(context.Background(), storage.KeyCart)
	require.NoError(t, err)
	var items []cart.Item
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return items
}

func TestLocalCartScenario(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	s := newStore(t, &fakeBackend{}, local)
	p1 := ident.String("p1")

	_, err := s.Dispatch(ctx, AddItem{Item: cart.Item{ID: p1, Quantity: 1}})
	require.NoError(t, err)
	st, err := s.Dispatch(ctx, AddItem{Item: cart.Item{ID: p1, Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, st.Cart.Items, 1)
	assert.Equal(t, 3, st.Cart.Items[0].Quantity)
	assert.Equal(t, cart.SyncLocal, st.Cart.Items[0].Sync)
	assert.Equal(t, st.Cart.Items, persisted(t, local))

	st, err = s.Dispatch(ctx, DecrementItem{ID: p1})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Cart.Items[0].Quantity)
	assert.Equal(t, st.Cart.Items, persisted(t, local))

	_, err = s.Dispatch(ctx, DecrementItem{ID: p1})
	require.NoError(t, err)
	st, err = s.Dispatch(ctx, DecrementItem{ID: p1})
	require.NoError(t, err)
	assert.Empty(t, st.Cart.Items)
	assert.Empty(t, persisted(t, local))
}

func TestPersistedCartRoundTripsAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	s := newStore(t, &fakeBackend{}, local)

	actions := []Action{
		AddItem{Item: cart.Item{ID: ident.Numeric(1), Quantity: 2, Title: "one", Price: 1.5}},
		AddItem{Item: cart.Item{ID: ident.String("1"), Quantity: 1}},
		IncrementItem{ID: ident.Numeric(1)},
		SetQuantity{ID: ident.String("1"), Quantity: 5},
		RemoveItem{ID: ident.Numeric(1)},
		ClearCart{},
	}
	for _, a := range actions {
		st, err := s.Dispatch(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, st.Cart.Items, persisted(t, local))
	}
}

func TestInvalidActionsAreRejectedBeforeMutation(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	s := newStore(t, &fakeBackend{}, local)

	for _, a := range []Action{
		AddItem{Item: cart.Item{ID: ident.String("p1"), Quantity: 0}},
		AddItem{Item: cart.Item{Quantity: 1}},
		SetSort{Sort: "cheapest"},
		SetCategory{Category: " "},
		SetQuantity{ID: ident.String("p1"), Quantity: -1},
		RemoveItem{},
	} {
		_, err := s.Dispatch(ctx, a)
		assert.ErrorIs(t, err, ErrInvalidAction)
	}

	assert.Empty(t, s.State().Cart.Items)
	assert.Equal(t, catalog.DefaultFilter(), s.State().Products.Filter)
	_, err := local.GetItem(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMissingEntriesAreNoOps(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, &fakeBackend{}, storage.NewMemory())

	st, err := s.Dispatch(ctx, IncrementItem{ID: ident.String("ghost")})
	require.NoError(t, err)
	assert.Empty(t, st.Cart.Items)

	st, err = s.Dispatch(ctx, DecrementItem{ID: ident.String("ghost")})
	require.NoError(t, err)
	assert.Empty(t, st.Cart.Items)
}

func TestProductViewFollowsFilters(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{products: []catalog.Product{
		{ID: ident.String("A"), Title: "A", Price: 10, Category: "c"},
		{ID: ident.String("B"), Title: "B", Price: 5, Category: "c"},
	}}
	s := newStore(t, b, storage.NewMemory())

	require.NoError(t, await(t, s.FetchProducts(ctx)))
	st := s.State()
	assert.False(t, st.Products.Loading)
	assert.Len(t, st.Products.Filtered, 2)
	assert.Equal(t, []string{catalog.AllCategories, "c"}, st.Products.Categories)

	st, err := s.Dispatch(ctx, SetSort{Sort: catalog.SortPriceLow})
	require.NoError(t, err)
	require.Len(t, st.Products.Filtered, 2)
	assert.Equal(t, "B", st.Products.Filtered[0].Title)
	assert.Equal(t, "A", st.Products.Filtered[1].Title)

	st, err = s.Dispatch(ctx, SetCategory{Category: "x"})
	require.NoError(t, err)
	assert.Empty(t, st.Products.Filtered)
	assert.Len(t, st.Products.Items, 2)

	st, err = s.Dispatch(ctx, ResetFilters{})
	require.NoError(t, err)
	assert.Len(t, st.Products.Filtered, 2)
}

func TestFetchProductsFailureSetsError(t *testing.T) {
	b := &fakeBackend{productsErr: &api.Error{Status: 502, Code: "bad_gateway", Message: "upstream down"}}
	s := newStore(t, b, storage.NewMemory())

	err := await(t, s.FetchProducts(context.Background()))
	require.Error(t, err)

	st := s.State()
	assert.False(t, st.Products.Loading)
	assert.Equal(t, "upstream down", st.Products.Error)
}

func TestProductWritesUpdateTheList(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{products: []catalog.Product{{ID: ident.String("a"), Title: "Old", Category: "c"}}}
	s := newStore(t, b, storage.NewMemory())
	require.NoError(t, await(t, s.FetchProducts(ctx)))

	require.NoError(t, await(t, s.UpdateProduct(ctx, ident.String("a"), catalog.Draft{Title: "New", Category: "c"})))
	require.NoError(t, await(t, s.CreateProduct(ctx, catalog.Draft{Title: "Fresh", Category: "d"})))

	st := s.State()
	require.Len(t, st.Products.Items, 2)
	assert.Equal(t, "New", st.Products.Items[0].Title)
	assert.Equal(t, "Fresh", st.Products.Items[1].Title)
	assert.Len(t, st.Products.Filtered, 2)

	require.NoError(t, await(t, s.DeleteProduct(ctx, ident.String("a"))))
	assert.Len(t, s.State().Products.Items, 1)
}

func TestServerAddIsPendingThenReplacedByServerList(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	b := &fakeBackend{gate: make(chan struct{})}
	s := newStore(t, b, local)

	done := s.AddToCartServer(ctx, cart.Item{ID: ident.String("p1"), Quantity: 2, Title: "local"})

	require.Eventually(t, func() bool {
		items := s.State().Cart.Items
		return len(items) == 1 && items[0].Sync == cart.SyncPending
	}, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, s.State().Cart.Unsynced(), 1)

	close(b.gate)
	require.NoError(t, await(t, done))

	st := s.State()
	require.Len(t, st.Cart.Items, 1)
	assert.Equal(t, cart.SyncSynced, st.Cart.Items[0].Sync)
	assert.Equal(t, "server p1", st.Cart.Items[0].Title)
	assert.Empty(t, st.Cart.Unsynced())
	assert.Empty(t, st.Cart.Error)
	assert.Equal(t, st.Cart.Items, persisted(t, local))
}

func TestServerAddFailureKeepsOptimisticItem(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	b := &fakeBackend{cartErr: errors.New("connection refused")}
	s := newStore(t, b, local)

	err := await(t, s.AddToCartServer(ctx, cart.Item{ID: ident.String("p1"), Quantity: 1}))
	require.Error(t, err)

	st := s.State()
	require.Len(t, st.Cart.Items, 1)
	assert.Equal(t, 1, st.Cart.Items[0].Quantity)
	assert.Equal(t, cart.SyncFailed, st.Cart.Items[0].Sync)
	assert.Equal(t, "connection refused", st.Cart.Error)
	assert.Equal(t, st.Cart.Items, persisted(t, local))
}

func TestServerCartFailuresKeepOptimisticState(t *testing.T) {
	p1, n1 := ident.String("p1"), ident.Numeric(1)

	cases := []struct {
		name string
		call func(ctx context.Context, s *Store) <-chan error
		// want maps each surviving id to its quantity and sync state.
		want map[ident.ID]cart.Item
	}{
		{
			name: "increment",
			call: func(ctx context.Context, s *Store) <-chan error { return s.IncrementServer(ctx, p1) },
			want: map[ident.ID]cart.Item{p1: {Quantity: 4, Sync: cart.SyncFailed}, n1: {Quantity: 1, Sync: cart.SyncSynced}},
		},
		{
			name: "decrement keeps entry",
			call: func(ctx context.Context, s *Store) <-chan error { return s.DecrementServer(ctx, p1) },
			want: map[ident.ID]cart.Item{p1: {Quantity: 2, Sync: cart.SyncFailed}, n1: {Quantity: 1, Sync: cart.SyncSynced}},
		},
		{
			name: "decrement at one removes",
			call: func(ctx context.Context, s *Store) <-chan error { return s.DecrementServer(ctx, n1) },
			want: map[ident.ID]cart.Item{p1: {Quantity: 3, Sync: cart.SyncSynced}},
		},
		{
			name: "set quantity",
			call: func(ctx context.Context, s *Store) <-chan error { return s.UpdateQuantityServer(ctx, p1, 5) },
			want: map[ident.ID]cart.Item{p1: {Quantity: 5, Sync: cart.SyncFailed}, n1: {Quantity: 1, Sync: cart.SyncSynced}},
		},
		{
			name: "set quantity zero",
			call: func(ctx context.Context, s *Store) <-chan error { return s.UpdateQuantityServer(ctx, p1, 0) },
			want: map[ident.ID]cart.Item{n1: {Quantity: 1, Sync: cart.SyncSynced}},
		},
		{
			name: "remove",
			call: func(ctx context.Context, s *Store) <-chan error { return s.RemoveServer(ctx, n1) },
			want: map[ident.ID]cart.Item{p1: {Quantity: 3, Sync: cart.SyncSynced}},
		},
		{
			name: "clear",
			call: func(ctx context.Context, s *Store) <-chan error { return s.ClearServer(ctx) },
			want: map[ident.ID]cart.Item{},
		},
		{
			name: "fetch",
			call: func(ctx context.Context, s *Store) <-chan error { return s.FetchCart(ctx) },
			want: map[ident.ID]cart.Item{p1: {Quantity: 3, Sync: cart.SyncSynced}, n1: {Quantity: 1, Sync: cart.SyncSynced}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			local := storage.NewMemory()
			b := &fakeBackend{}
			s := newStore(t, b, local)

			require.NoError(t, await(t, s.AddToCartServer(ctx, cart.Item{ID: p1, Quantity: 3})))
			require.NoError(t, await(t, s.AddToCartServer(ctx, cart.Item{ID: n1, Quantity: 1})))
			b.failCart(errors.New("boom"))

			require.EqualError(t, await(t, tc.call(ctx, s)), "boom")

			st := s.State()
			assert.Equal(t, "boom", st.Cart.Error)
			assert.False(t, st.Cart.Loading)
			require.Len(t, st.Cart.Items, len(tc.want))
			for _, it := range st.Cart.Items {
				want, ok := tc.want[it.ID]
				require.True(t, ok, "unexpected entry %s", it.ID)
				assert.Equal(t, want.Quantity, it.Quantity, it.ID.String())
				assert.Equal(t, want.Sync, it.Sync, it.ID.String())
			}

			stored := persisted(t, local)
			if len(st.Cart.Items) == 0 {
				assert.Empty(t, stored)
			} else {
				assert.Equal(t, st.Cart.Items, stored)
			}
		})
	}
}

func TestServerAddRejectsInvalidInput(t *testing.T) {
	b := &fakeBackend{}
	s := newStore(t, b, storage.NewMemory())

	err := await(t, s.AddToCartServer(context.Background(), cart.Item{ID: ident.String("p1")}))
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Empty(t, b.Calls())
	assert.Empty(t, s.State().Cart.Items)
}

func TestServerDecrementAtOneRemoves(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{}
	s := newStore(t, b, storage.NewMemory())

	require.NoError(t, await(t, s.AddToCartServer(ctx, cart.Item{ID: ident.String("p1"), Quantity: 2})))
	require.NoError(t, await(t, s.DecrementServer(ctx, ident.String("p1"))))
	assert.Equal(t, 1, s.State().Cart.Items[0].Quantity)

	require.NoError(t, await(t, s.DecrementServer(ctx, ident.String("p1"))))
	assert.Empty(t, s.State().Cart.Items)
	assert.Equal(t, []string{"AddToCart", "UpdateCartItem", "RemoveFromCart"}, b.Calls())

	require.NoError(t, await(t, s.DecrementServer(ctx, ident.String("p1"))))
	assert.Len(t, b.Calls(), 3)
}

func TestServerIncrementAndQuantity(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{}
	s := newStore(t, b, storage.NewMemory())
	id := ident.Numeric(9)

	require.NoError(t, await(t, s.AddToCartServer(ctx, cart.Item{ID: id, Quantity: 1})))
	require.NoError(t, await(t, s.IncrementServer(ctx, id)))
	assert.Equal(t, 2, s.State().Cart.Items[0].Quantity)

	require.NoError(t, await(t, s.UpdateQuantityServer(ctx, id, 7)))
	assert.Equal(t, 7, s.State().Cart.Items[0].Quantity)

	require.NoError(t, await(t, s.UpdateQuantityServer(ctx, id, 0)))
	assert.Empty(t, s.State().Cart.Items)
}

func TestFetchAndClearServerCart(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{serverCart: []cart.Item{{ID: ident.String("s1"), Quantity: 4}}}
	local := storage.NewMemory()
	s := newStore(t, b, local)

	_, err := s.Dispatch(ctx, AddItem{Item: cart.Item{ID: ident.String("guest"), Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, await(t, s.FetchCart(ctx)))
	st := s.State()
	require.Len(t, st.Cart.Items, 1)
	assert.True(t, st.Cart.Items[0].ID.Equal(ident.String("s1")))
	assert.False(t, st.Cart.Loading)

	require.NoError(t, await(t, s.RemoveServer(ctx, ident.String("s1"))))
	assert.Empty(t, s.State().Cart.Items)

	require.NoError(t, await(t, s.ClearServer(ctx)))
	assert.Empty(t, persisted(t, local))
}

func TestCorruptStoredCartLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{`not json`, `{"id":1}`, `[{"id":1,"quantity":0}]`, `[{"id":1,"quantity":1},{"id":1,"quantity":2}]`} {
		local := storage.NewMemory()
		require.NoError(t, local.SetItem(ctx, storage.KeyCart, raw))
		s := newStore(t, &fakeBackend{}, local)
		assert.Empty(t, s.State().Cart.Items, raw)
	}
}

func TestStoredCartIsRestored(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	require.NoError(t, local.SetItem(ctx, storage.KeyCart, `[{"id":1,"quantity":2,"sync":"failed"},{"id":"1","quantity":1}]`))

	s := newStore(t, &fakeBackend{}, local)
	items := s.State().Cart.Items
	require.Len(t, items, 2)
	assert.True(t, items[0].ID.Equal(ident.Numeric(1)))
	assert.Equal(t, cart.SyncFailed, items[0].Sync)
	assert.True(t, items[1].ID.Equal(ident.String("1")))
}

func TestLoginPersistsSessionAndLogoutClearsIt(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	b := &fakeBackend{session: api.Session{Token: "jwt", User: api.User{ID: "u1", Email: "a@b.c"}}}
	s := newStore(t, b, local)

	require.NoError(t, await(t, s.Login(ctx, "a@b.c", "pw")))
	st := s.State()
	assert.True(t, st.Auth.Authenticated)
	assert.Equal(t, "jwt", st.Auth.Token)
	assert.Equal(t, "jwt", b.Token())

	tok, err := local.GetItem(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok)

	require.NoError(t, await(t, s.Logout(ctx)))
	assert.False(t, s.State().Auth.Authenticated)
	assert.Empty(t, b.Token())
	_, err = local.GetItem(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRestoreSession(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	b := &fakeBackend{}
	s := newStore(t, b, local)

	ok, err := s.RestoreSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, local.SetItem(ctx, storage.KeyToken, "stored"))
	require.NoError(t, local.SetItem(ctx, storage.KeyUser, `{"id":"u9","email":"x@y.z"}`))

	ok, err = s.RestoreSession(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u9", s.State().Auth.User.ID)
	assert.Equal(t, "stored", b.Token())
}

func TestLoginFailureSetsError(t *testing.T) {
	b := &fakeBackend{loginErr: &api.Error{Status: 401, Code: "unauthorized", Message: "invalid credentials"}}
	s := newStore(t, b, storage.NewMemory())

	require.Error(t, await(t, s.Login(context.Background(), "a@b.c", "bad")))
	st := s.State()
	assert.False(t, st.Auth.Authenticated)
	assert.False(t, st.Auth.Loading)
	assert.Equal(t, "invalid credentials", st.Auth.Error)
}

func TestRegisterSignsUpThenLogsIn(t *testing.T) {
	b := &fakeBackend{session: api.Session{Token: "jwt", User: api.User{ID: "u1"}}}
	s := newStore(t, b, storage.NewMemory())

	require.NoError(t, await(t, s.Register(context.Background(), "a@b.c", "pw")))
	assert.Equal(t, []string{"Signup", "Login"}, b.Calls())
	assert.True(t, s.State().Auth.Authenticated)
}

func TestFetchProfileFallsBackToStoredUser(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	require.NoError(t, local.SetItem(ctx, storage.KeyToken, "t"))
	require.NoError(t, local.SetItem(ctx, storage.KeyUser, `{"id":"u2","email":"s@t.u"}`))
	b := &fakeBackend{profileErr: errors.New("offline")}
	s := newStore(t, b, local)

	require.NoError(t, await(t, s.FetchProfile(ctx)))
	st := s.State()
	require.NotNil(t, st.Auth.User)
	assert.Equal(t, "u2", st.Auth.User.ID)
	assert.Empty(t, st.Auth.Error)
}

func TestPlaceOrderClearsCart(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemory()
	b := &fakeBackend{order: api.Order{ID: "o1", Total: 12}}
	s := newStore(t, b, local)

	_, err := s.Dispatch(ctx, AddItem{Item: cart.Item{ID: ident.String("p1"), Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, await(t, s.Checkout(ctx)))
	require.NotNil(t, s.State().Orders.Checkout)
	assert.Equal(t, "cs_1", s.State().Orders.Checkout.ID)

	require.NoError(t, await(t, s.PlaceOrder(ctx)))
	st := s.State()
	assert.Empty(t, st.Cart.Items)
	require.Len(t, st.Orders.Items, 1)
	assert.Equal(t, "o1", st.Orders.Items[0].ID)
	assert.Empty(t, persisted(t, local))

	require.NoError(t, await(t, s.FetchOrders(ctx)))
	assert.Len(t, s.State().Orders.Items, 1)
}

func TestPlaceOrderFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{orderErr: &api.Error{Status: 400, Code: "empty_cart", Message: "cart is empty"}}
	s := newStore(t, b, storage.NewMemory())
	_, err := s.Dispatch(ctx, AddItem{Item: cart.Item{ID: ident.String("p1"), Quantity: 1}})
	require.NoError(t, err)

	require.Error(t, await(t, s.PlaceOrder(ctx)))
	st := s.State()
	assert.Len(t, st.Cart.Items, 1)
	assert.Equal(t, "cart is empty", st.Orders.Error)
}

func TestDashboardStatus(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{dashboard: api.Dashboard{UsersCount: 3, ProductsCount: 5, CartCount: 1, Revenue: 99.5}}
	s := newStore(t, b, storage.NewMemory())
	assert.Equal(t, AdminIdle, s.State().Admin.Status)

	require.NoError(t, await(t, s.FetchDashboard(ctx)))
	assert.Equal(t, AdminSucceeded, s.State().Admin.Status)
	assert.Equal(t, int64(3), s.State().Admin.Dashboard.UsersCount)

	b.dashErr = &api.Error{Status: 403, Code: "forbidden"}
	require.Error(t, await(t, s.FetchDashboard(ctx)))
	assert.Equal(t, AdminFailed, s.State().Admin.Status)
	assert.NotEmpty(t, s.State().Admin.Error)
}

func TestSubscribeAndClose(t *testing.T) {
	ctx := context.Background()
	s := New(&fakeBackend{}, storage.NewMemory())

	ch, cancel := s.Subscribe()
	first := <-ch
	assert.Empty(t, first.Cart.Items)

	_, err := s.Dispatch(ctx, AddItem{Item: cart.Item{ID: ident.String("p1"), Quantity: 1}})
	require.NoError(t, err)
	next := <-ch
	assert.Len(t, next.Cart.Items, 1)

	cancel()
	_, open := <-ch
	assert.False(t, open)

	other, _ := s.Subscribe()
	<-other
	s.Close()
	_, open = <-other
	assert.False(t, open)

	_, err = s.Dispatch(ctx, ClearCart{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDispatchesAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, &fakeBackend{}, storage.NewMemory())
	id := ident.String("p1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Dispatch(ctx, AddItem{Item: cart.Item{ID: id, Quantity: 1}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items := s.State().Cart.Items
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Quantity)
}
