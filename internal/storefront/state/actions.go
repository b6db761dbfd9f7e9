package state

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jcmexdev/storefront/internal/pkg/ident"
	"github.com/jcmexdev/storefront/internal/storefront/api"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/catalog"
)

// effect lists the side effects the loop runs after a reducer.
type effect uint8

const (
	persistCart effect = 1 << iota
	persistSession
	clearSession
)

// Action is a state transition applied on the store loop. Only this package
// defines actions; presentation code dispatches the exported intents below.
type Action interface {
	reduce(s *State) effect
}

type validator interface {
	validate() error
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAction, fmt.Sprintf(format, args...))
}

func requireID(id ident.ID) error {
	if id.IsZero() {
		return invalid("product id is required")
	}
	return nil
}

func syncOr(s cart.SyncState) cart.SyncState {
	if s == "" {
		return cart.SyncLocal
	}
	return s
}

// ---- product view intents ----

type SetSearch struct{ Term string }

func (a SetSearch) reduce(s *State) effect {
	s.Products.Filter.Search = a.Term
	s.Products.derive()
	return 0
}

type SetCategory struct{ Category string }

func (a SetCategory) validate() error {
	if strings.TrimSpace(a.Category) == "" {
		return invalid("category is required")
	}
	return nil
}

func (a SetCategory) reduce(s *State) effect {
	s.Products.Filter.Category = a.Category
	s.Products.derive()
	return 0
}

type SetSort struct{ Sort catalog.SortKey }

func (a SetSort) validate() error {
	if !a.Sort.Valid() {
		return invalid("unknown sort key %q", a.Sort)
	}
	return nil
}

func (a SetSort) reduce(s *State) effect {
	s.Products.Filter.Sort = a.Sort
	s.Products.derive()
	return 0
}

type ResetFilters struct{}

func (ResetFilters) reduce(s *State) effect {
	s.Products.Filter = catalog.DefaultFilter()
	s.Products.derive()
	return 0
}

// ---- cart intents ----

// AddItem merges Item into the cart. An empty Item.Sync means a guest entry.
type AddItem struct{ Item cart.Item }

func (a AddItem) validate() error {
	if err := requireID(a.Item.ID); err != nil {
		return err
	}
	if a.Item.Quantity < 1 {
		return invalid("quantity must be at least 1, got %d", a.Item.Quantity)
	}
	return nil
}

func (a AddItem) reduce(s *State) effect {
	it := a.Item
	it.Sync = syncOr(it.Sync)
	s.Cart.Items = cart.Add(s.Cart.Items, it)
	return persistCart
}

type IncrementItem struct {
	ID   ident.ID
	sync cart.SyncState
}

func (a IncrementItem) validate() error { return requireID(a.ID) }

func (a IncrementItem) reduce(s *State) effect {
	s.Cart.Items = cart.Increment(s.Cart.Items, a.ID, syncOr(a.sync))
	return persistCart
}

// DecrementItem removes the entry when its quantity is 1.
type DecrementItem struct {
	ID   ident.ID
	sync cart.SyncState
}

func (a DecrementItem) validate() error { return requireID(a.ID) }

func (a DecrementItem) reduce(s *State) effect {
	s.Cart.Items = cart.Decrement(s.Cart.Items, a.ID, syncOr(a.sync))
	return persistCart
}

type SetQuantity struct {
	ID       ident.ID
	Quantity int
	sync     cart.SyncState
}

func (a SetQuantity) validate() error {
	if err := requireID(a.ID); err != nil {
		return err
	}
	if a.Quantity < 0 {
		return invalid("quantity must not be negative, got %d", a.Quantity)
	}
	return nil
}

func (a SetQuantity) reduce(s *State) effect {
	s.Cart.Items = cart.SetQuantity(s.Cart.Items, a.ID, a.Quantity, syncOr(a.sync))
	return persistCart
}

type RemoveItem struct{ ID ident.ID }

func (a RemoveItem) validate() error { return requireID(a.ID) }

func (a RemoveItem) reduce(s *State) effect {
	s.Cart.Items = cart.Remove(s.Cart.Items, a.ID)
	return persistCart
}

type ClearCart struct{}

func (ClearCart) reduce(s *State) effect {
	s.Cart.Items = []cart.Item{}
	return persistCart
}

// ---- outcomes of network calls ----

type productsRequested struct{}

func (productsRequested) reduce(s *State) effect {
	s.Products.Loading = true
	s.Products.Error = ""
	return 0
}

type productsLoaded struct{ items []catalog.Product }

func (a productsLoaded) reduce(s *State) effect {
	s.Products.Items = a.items
	s.Products.Loading = false
	s.Products.Error = ""
	s.Products.derive()
	return 0
}

type productsFailed struct{ err string }

func (a productsFailed) reduce(s *State) effect {
	s.Products.Loading = false
	s.Products.Error = a.err
	return 0
}

// productSaved upserts a product by id.
type productSaved struct{ product catalog.Product }

func (a productSaved) reduce(s *State) effect {
	items := slices.Clone(s.Products.Items)
	if i := catalog.Index(items, a.product.ID); i >= 0 {
		items[i] = a.product
	} else {
		items = append(items, a.product)
	}
	s.Products.Items = items
	s.Products.Loading = false
	s.Products.Error = ""
	s.Products.derive()
	return 0
}

type productRemoved struct{ id ident.ID }

func (a productRemoved) reduce(s *State) effect {
	s.Products.Items = slices.DeleteFunc(slices.Clone(s.Products.Items), func(p catalog.Product) bool {
		return p.ID.Equal(a.id)
	})
	s.Products.Loading = false
	s.Products.derive()
	return 0
}

type cartRequested struct{}

func (cartRequested) reduce(s *State) effect {
	s.Cart.Loading = true
	return 0
}

// cartReplaced installs the server's authoritative list.
type cartReplaced struct{ items []cart.Item }

func (a cartReplaced) reduce(s *State) effect {
	s.Cart.Items = cart.Confirm(a.items)
	s.Cart.Loading = false
	s.Cart.Error = ""
	return persistCart
}

// cartFailed keeps the optimistic items, marks the touched ones failed and
// records the error.
type cartFailed struct {
	ids []ident.ID
	err string
}

func (a cartFailed) reduce(s *State) effect {
	items := s.Cart.Items
	for _, id := range a.ids {
		items = cart.Mark(items, id, cart.SyncFailed)
	}
	s.Cart.Items = items
	s.Cart.Loading = false
	s.Cart.Error = a.err
	return persistCart
}

type authRequested struct{}

func (authRequested) reduce(s *State) effect {
	s.Auth.Loading = true
	s.Auth.Error = ""
	return 0
}

type loggedIn struct{ session api.Session }

func (a loggedIn) reduce(s *State) effect {
	u := a.session.User
	s.Auth = AuthState{Authenticated: true, Token: a.session.Token, User: &u}
	return persistSession
}

// sessionRestored is loggedIn without writing storage back.
type sessionRestored struct{ session api.Session }

func (a sessionRestored) reduce(s *State) effect {
	u := a.session.User
	s.Auth = AuthState{Authenticated: true, Token: a.session.Token, User: &u}
	return 0
}

type authFailed struct{ err string }

func (a authFailed) reduce(s *State) effect {
	s.Auth.Loading = false
	s.Auth.Error = a.err
	return 0
}

type profileLoaded struct{ user api.User }

func (a profileLoaded) reduce(s *State) effect {
	u := a.user
	s.Auth.User = &u
	s.Auth.Loading = false
	s.Auth.Error = ""
	return 0
}

type loggedOut struct{}

func (loggedOut) reduce(s *State) effect {
	s.Auth = AuthState{}
	return clearSession
}

type ordersRequested struct{}

func (ordersRequested) reduce(s *State) effect {
	s.Orders.Loading = true
	s.Orders.Error = ""
	return 0
}

type ordersLoaded struct{ orders []api.Order }

func (a ordersLoaded) reduce(s *State) effect {
	s.Orders.Items = a.orders
	s.Orders.Loading = false
	return 0
}

// orderPlaced records the order and empties the cart.
type orderPlaced struct{ order api.Order }

func (a orderPlaced) reduce(s *State) effect {
	s.Orders.Items = append(slices.Clone(s.Orders.Items), a.order)
	s.Orders.Loading = false
	s.Orders.Checkout = nil
	s.Cart.Items = []cart.Item{}
	s.Cart.Error = ""
	return persistCart
}

type checkoutCreated struct{ session api.CheckoutSession }

func (a checkoutCreated) reduce(s *State) effect {
	sess := a.session
	s.Orders.Checkout = &sess
	s.Orders.Loading = false
	return 0
}

type ordersFailed struct{ err string }

func (a ordersFailed) reduce(s *State) effect {
	s.Orders.Loading = false
	s.Orders.Error = a.err
	return 0
}

type dashboardRequested struct{}

func (dashboardRequested) reduce(s *State) effect {
	s.Admin.Status = AdminLoading
	s.Admin.Error = ""
	return 0
}

type dashboardLoaded struct{ dashboard api.Dashboard }

func (a dashboardLoaded) reduce(s *State) effect {
	s.Admin = AdminState{Dashboard: a.dashboard, Status: AdminSucceeded}
	return 0
}

type dashboardFailed struct{ err string }

func (a dashboardFailed) reduce(s *State) effect {
	s.Admin.Status = AdminFailed
	s.Admin.Error = a.err
	return 0
}
