// Package memstore keeps products, users and orders in process memory. It
// backs STORE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

var (
	_ ports.ProductRepository = (*ProductRepository)(nil)
	_ ports.UserRepository    = (*UserRepository)(nil)
	_ ports.OrderRepository   = (*OrderRepository)(nil)
)

// now is swapped by tests.
var now = time.Now

// ---- products ----

type ProductRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]entity.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{byID: make(map[string]entity.Product)}
}

func cloneProduct(p entity.Product) entity.Product {
	p.Gallery = slices.Clone(p.Gallery)
	return p
}

func (r *ProductRepository) List(_ context.Context, offset, limit int) ([]entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Product, 0, limit)
	for i := offset; i < len(r.order) && len(out) < limit; i++ {
		out = append(out, cloneProduct(r.byID[r.order[i]]))
	}
	return out, nil
}

func (r *ProductRepository) Count(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.order)), nil
}

func (r *ProductRepository) Get(_ context.Context, id string) (entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return entity.Product{}, fmt.Errorf("product %s: %w", id, ports.ErrNotFound)
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) GetMany(_ context.Context, ids []string) ([]entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (r *ProductRepository) Create(_ context.Context, p entity.Product) (entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = uuid.NewString()
	p.CreatedAt = now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.byID[p.ID] = cloneProduct(p)
	r.order = append(r.order, p.ID)
	return p, nil
}

func (r *ProductRepository) Update(_ context.Context, p entity.Product) (entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[p.ID]
	if !ok {
		return entity.Product{}, fmt.Errorf("product %s: %w", p.ID, ports.ErrNotFound)
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = now().UTC()
	r.byID[p.ID] = cloneProduct(p)
	return p, nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ports.ErrNotFound)
	}
	delete(r.byID, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

// ---- users ----

type UserRepository struct {
	mu   sync.RWMutex
	byID map[string]entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[string]entity.User)}
}

func cloneUser(u entity.User) entity.User {
	u.Cart = slices.Clone(u.Cart)
	return u
}

func (r *UserRepository) Create(_ context.Context, u entity.User) (entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return entity.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrDuplicate)
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = now().UTC()
	r.byID[u.ID] = cloneUser(u)
	return u, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return entity.User{}, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (r *UserRepository) find(match func(entity.User) bool) (entity.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			return cloneUser(u), true
		}
	}
	return entity.User{}, false
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (entity.User, error) {
	u, ok := r.find(func(u entity.User) bool { return strings.EqualFold(u.Email, email) })
	if !ok {
		return entity.User{}, fmt.Errorf("user %s: %w", email, ports.ErrNotFound)
	}
	return u, nil
}

func (r *UserRepository) GetByResetToken(_ context.Context, token string) (entity.User, error) {
	t := now()
	u, ok := r.find(func(u entity.User) bool {
		return token != "" && u.ResetToken == token && u.ResetTokenExpiry.After(t)
	})
	if !ok {
		return entity.User{}, fmt.Errorf("reset token: %w", ports.ErrNotFound)
	}
	return u, nil
}

func (r *UserRepository) Update(_ context.Context, u entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, ports.ErrNotFound)
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepository) SaveCart(_ context.Context, userID string, lines []entity.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, ports.ErrNotFound)
	}
	u.Cart = slices.Clone(lines)
	r.byID[userID] = u
	return nil
}

func (r *UserRepository) Count(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *UserRepository) CountWithCart(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, u := range r.byID {
		if len(u.Cart) > 0 {
			n++
		}
	}
	return n, nil
}

// ---- orders ----

type OrderRepository struct {
	mu     sync.RWMutex
	orders []entity.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func (r *OrderRepository) Create(_ context.Context, o entity.Order) (entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.ID = uuid.NewString()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now().UTC()
	}
	o.Lines = slices.Clone(o.Lines)
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.orders)
	r.orders = slices.DeleteFunc(r.orders, func(o entity.Order) bool { return o.ID == id })
	if len(r.orders) == n {
		return fmt.Errorf("order %s: %w", id, ports.ErrNotFound)
	}
	return nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Order, 0)
	for i := len(r.orders) - 1; i >= 0; i-- {
		if o := r.orders[i]; o.UserID == userID {
			o.Lines = slices.Clone(o.Lines)
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OrderRepository) Revenue(context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum float64
	for _, o := range r.orders {
		sum += o.Total
	}
	return sum, nil
}
