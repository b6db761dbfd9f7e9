package coordinator

import (
	"context"
	"fmt"
	"slices"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

// --- CreateOrderStep ---

type CreateOrderStep struct {
	orders  ports.OrderRepository
	order   entity.Order
	created entity.Order
}

func NewCreateOrderStep(orders ports.OrderRepository, order entity.Order) *CreateOrderStep {
	return &CreateOrderStep{orders: orders, order: order}
}

func (s *CreateOrderStep) Name() string { return "Create_Order_Step" }

func (s *CreateOrderStep) Execute(ctx context.Context) error {
	created, err := s.orders.Create(ctx, s.order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	s.created = created
	return nil
}

func (s *CreateOrderStep) Compensate(ctx context.Context) error {
	if s.created.ID == "" {
		return nil
	}
	return s.orders.Delete(ctx, s.created.ID)
}

// Order returns the persisted order once Execute succeeded.
func (s *CreateOrderStep) Order() entity.Order { return s.created }

// --- ClearCartStep ---

type ClearCartStep struct {
	users    ports.UserRepository
	userID   string
	previous []entity.CartLine
}

// NewClearCartStep empties the user's cart; previous is restored on
// compensation.
func NewClearCartStep(users ports.UserRepository, userID string, previous []entity.CartLine) *ClearCartStep {
	return &ClearCartStep{users: users, userID: userID, previous: slices.Clone(previous)}
}

func (s *ClearCartStep) Name() string { return "Clear_Cart_Step" }

func (s *ClearCartStep) Execute(ctx context.Context) error {
	if err := s.users.SaveCart(ctx, s.userID, nil); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *ClearCartStep) Compensate(ctx context.Context) error {
	return s.users.SaveCart(ctx, s.userID, s.previous)
}
