package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
	"github.com/jcmexdev/storefront/internal/shop/infra/adapters/memstore"
)

type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }

func (fakeHasher) Compare(hash, pw string) error {
	if hash != "hashed:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID string, role entity.Role) (string, error) {
	return userID + "|" + string(role), nil
}

func (fakeTokens) Verify(token string) (ports.Claims, error) {
	id, role, ok := strings.Cut(token, "|")
	if !ok {
		return ports.Claims{}, errors.New("malformed")
	}
	return ports.Claims{UserID: id, Role: entity.Role(role), ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type fakePayments struct {
	last entity.CheckoutRequest
	err  error
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, req entity.CheckoutRequest) (entity.CheckoutSession, error) {
	f.last = req
	if f.err != nil {
		return entity.CheckoutSession{}, f.err
	}
	return entity.CheckoutSession{ID: "cs_test", URL: "https://pay.example/cs_test"}, nil
}

// flakyUsers fails SaveCart with an empty cart, which is what the order
// saga's clear step writes.
type flakyUsers struct {
	*memstore.UserRepository
}

func (f flakyUsers) SaveCart(ctx context.Context, userID string, lines []entity.CartLine) error {
	if len(lines) == 0 {
		return errors.New("write conflict")
	}
	return f.UserRepository.SaveCart(ctx, userID, lines)
}

type counter struct{ hits, misses, placed, failed int }

func (c *counter) CacheHit()  { c.hits++ }
func (c *counter) CacheMiss() { c.misses++ }
func (c *counter) OrderPlaced(ok bool) {
	if ok {
		c.placed++
	} else {
		c.failed++
	}
}

type fixture struct {
	users    *memstore.UserRepository
	products *memstore.ProductRepository
	orders   *memstore.OrderRepository
	payments *fakePayments
	auth     *AuthService
	catalog  *CatalogService
	carts    *CartService
	ordersvc *OrderService
	admin    *AdminService
	counter  *counter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    memstore.NewUserRepository(),
		products: memstore.NewProductRepository(),
		orders:   memstore.NewOrderRepository(),
		payments: &fakePayments{},
		counter:  &counter{},
	}
	f.auth = NewAuthService(f.users, fakeHasher{}, fakeTokens{}, []string{"boss@shop.io"}, "http://front.test/")
	f.catalog = NewCatalogService(f.products)
	f.carts = NewCartService(f.users, f.products)
	f.ordersvc = NewOrderService(f.carts, f.users, f.orders, f.payments, OrderConfig{
		FrontendURL: "http://front.test",
		Observer:    f.counter,
	})
	f.admin = NewAdminService(f.users, f.products, f.orders)
	return f
}

func (f *fixture) user(t *testing.T, email string) entity.User {
	t.Helper()
	u, err := f.auth.Signup(context.Background(), email, "secret")
	require.NoError(t, err)
	return u
}

func (f *fixture) product(t *testing.T, title string, price float64) entity.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), "", entity.ProductInput{
		Title: title, Price: price, Description: "d", Image: "i.png",
	})
	require.NoError(t, err)
	return p
}

func newTestCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return cache.NewRedisCache(mr.Addr(), "test"), mr
}
