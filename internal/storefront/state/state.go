// Package state is the storefront client store. A Store owns the product,
// cart, auth, orders and admin slices, applies actions one at a time on its
// update loop and publishes immutable snapshots to readers.
package state

import (
	"context"
	"errors"

	"github.com/jcmexdev/storefront/internal/pkg/ident"
	"github.com/jcmexdev/storefront/internal/storefront/api"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/catalog"
)

var (
	// ErrInvalidAction rejects an action before any state is touched.
	ErrInvalidAction = errors.New("state: invalid action")
	ErrClosed        = errors.New("state: store closed")
)

// Reader is the read capability handed to presentation code.
type Reader interface {
	State() State
	Subscribe() (<-chan State, func())
}

// Dispatcher is the write capability for local intents.
type Dispatcher interface {
	Dispatch(ctx context.Context, a Action) (State, error)
}

// Backend is the subset of the shop API the store talks to.
type Backend interface {
	SetToken(token string)

	ListProducts(ctx context.Context) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, d catalog.Draft) (catalog.Product, error)
	UpdateProduct(ctx context.Context, id ident.ID, d catalog.Draft) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id ident.ID) error

	Cart(ctx context.Context) ([]cart.Item, error)
	AddToCart(ctx context.Context, id ident.ID, qty int) ([]cart.Item, error)
	RemoveFromCart(ctx context.Context, id ident.ID) ([]cart.Item, error)
	UpdateCartItem(ctx context.Context, id ident.ID, qty int) ([]cart.Item, error)
	ClearCart(ctx context.Context) ([]cart.Item, error)

	Signup(ctx context.Context, email, password string) (api.User, error)
	Login(ctx context.Context, email, password string) (api.Session, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (api.User, error)

	Checkout(ctx context.Context) (api.CheckoutSession, error)
	PlaceOrder(ctx context.Context) (api.Order, error)
	Orders(ctx context.Context) ([]api.Order, error)

	Dashboard(ctx context.Context) (api.Dashboard, error)
}

var _ Backend = (*api.Client)(nil)

// ProductsState is the product slice. Filtered and Categories are derived
// from Items and Filter and recomputed on every change to either.
type ProductsState struct {
	Items      []catalog.Product
	Filter     catalog.Filter
	Filtered   []catalog.Product
	Categories []string
	Loading    bool
	Error      string
}

func (p *ProductsState) derive() {
	p.Filtered = catalog.Derive(p.Items, p.Filter)
	p.Categories = catalog.Categories(p.Items)
}

type CartState struct {
	Items   []cart.Item
	Loading bool
	Error   string
}

// Unsynced lists entries that are pending or failed.
func (c CartState) Unsynced() []cart.Item {
	var out []cart.Item
	for _, it := range c.Items {
		if it.Unsynced() {
			out = append(out, it)
		}
	}
	return out
}

type AuthState struct {
	Authenticated bool
	Token         string
	User          *api.User
	Loading       bool
	Error         string
}

type AdminStatus string

const (
	AdminIdle      AdminStatus = "idle"
	AdminLoading   AdminStatus = "loading"
	AdminSucceeded AdminStatus = "succeeded"
	AdminFailed    AdminStatus = "failed"
)

type AdminState struct {
	Dashboard api.Dashboard
	Status    AdminStatus
	Error     string
}

type OrdersState struct {
	Items    []api.Order
	Checkout *api.CheckoutSession
	Loading  bool
	Error    string
}

// State is a snapshot of every slice. Slices inside a snapshot are shared
// with later snapshots and must be treated as read-only.
type State struct {
	Products ProductsState
	Cart     CartState
	Auth     AuthState
	Orders   OrdersState
	Admin    AdminState
}

func initialState() State {
	s := State{
		Products: ProductsState{Filter: catalog.DefaultFilter()},
		Cart:     CartState{Items: []cart.Item{}},
		Admin:    AdminState{Status: AdminIdle},
	}
	s.Products.derive()
	return s
}

// message turns an error into the string stored on a slice.
func message(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
