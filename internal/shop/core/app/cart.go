package app

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"sync"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

// CartService edits the cart embedded in the user document. Every mutation
// answers with the full cart joined with its products.
type CartService struct {
	users    ports.UserRepository
	products ports.ProductRepository

	// Read-modify-write of one user's cart is serialized in-process.
	locks [32]sync.Mutex
}

func NewCartService(users ports.UserRepository, products ports.ProductRepository) *CartService {
	return &CartService{users: users, products: products}
}

func (s *CartService) lock(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	mu := &s.locks[h.Sum32()%uint32(len(s.locks))]
	mu.Lock()
	return mu.Unlock
}

func (s *CartService) GetCart(ctx context.Context, userID string) ([]entity.CartItem, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	return s.join(ctx, u.Cart)
}

// join resolves the products of lines, skipping lines whose product is gone.
func (s *CartService) join(ctx context.Context, lines []entity.CartLine) ([]entity.CartItem, error) {
	out := make([]entity.CartItem, 0, len(lines))
	if len(lines) == 0 {
		return out, nil
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	found, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("cart products: %w", err)
	}
	byID := make(map[string]entity.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	for _, l := range lines {
		if p, ok := byID[l.ProductID]; ok {
			out = append(out, entity.CartItem{Product: p, Quantity: l.Quantity})
		}
	}
	return out, nil
}

// mutate loads the user's cart lines, applies fn and saves the result.
func (s *CartService) mutate(ctx context.Context, userID string, fn func([]entity.CartLine) ([]entity.CartLine, error)) ([]entity.CartItem, error) {
	defer s.lock(userID)()

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	lines, err := fn(slices.Clone(u.Cart))
	if err != nil {
		return nil, err
	}
	if err := s.users.SaveCart(ctx, userID, lines); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.join(ctx, lines)
}

func indexOf(lines []entity.CartLine, productID string) int {
	return slices.IndexFunc(lines, func(l entity.CartLine) bool { return l.ProductID == productID })
}

// AddItem adds qty units of a product, merging with an existing line. A zero
// quantity means one.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) ([]entity.CartItem, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, invalid("productId required")
	}
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, invalid("quantity must be positive")
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, fmt.Errorf("product: %w", err)
	}

	return s.mutate(ctx, userID, func(lines []entity.CartLine) ([]entity.CartLine, error) {
		if i := indexOf(lines, productID); i >= 0 {
			lines[i].Quantity += qty
			return lines, nil
		}
		return append(lines, entity.CartLine{ProductID: productID, Quantity: qty}), nil
	})
}

// RemoveItem drops the product's line; an absent line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) ([]entity.CartItem, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, invalid("productId required")
	}
	return s.mutate(ctx, userID, func(lines []entity.CartLine) ([]entity.CartLine, error) {
		return slices.DeleteFunc(lines, func(l entity.CartLine) bool { return l.ProductID == productID }), nil
	})
}

func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, qty int) ([]entity.CartItem, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, invalid("productId required")
	}
	if qty < 1 {
		return nil, invalid("quantity must be at least 1")
	}
	return s.mutate(ctx, userID, func(lines []entity.CartLine) ([]entity.CartLine, error) {
		i := indexOf(lines, productID)
		if i < 0 {
			return nil, fmt.Errorf("%w: item not found in cart", ErrNotFound)
		}
		lines[i].Quantity = qty
		return lines, nil
	})
}

func (s *CartService) Clear(ctx context.Context, userID string) ([]entity.CartItem, error) {
	return s.mutate(ctx, userID, func([]entity.CartLine) ([]entity.CartLine, error) {
		return nil, nil
	})
}
