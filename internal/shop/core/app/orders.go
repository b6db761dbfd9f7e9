package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/coordinator"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

const DefaultCurrency = "inr"

// OrderObserver is told about the outcome of each order placement.
type OrderObserver interface {
	OrderPlaced(ok bool)
}

type OrderConfig struct {
	Currency    string
	FrontendURL string
	// SagaLog records saga transitions; nil disables the log.
	SagaLog  sagalog.Repository
	Observer OrderObserver
}

type OrderService struct {
	carts    *CartService
	users    ports.UserRepository
	orders   ports.OrderRepository
	payments ports.PaymentGateway
	cfg      OrderConfig
	now      func() time.Time
}

func NewOrderService(carts *CartService, users ports.UserRepository, orders ports.OrderRepository, payments ports.PaymentGateway, cfg OrderConfig) *OrderService {
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &OrderService{
		carts:    carts,
		users:    users,
		orders:   orders,
		payments: payments,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Total sums price times quantity in decimal and rounds to cents.
func Total(items []entity.CartItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Product.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.Round(2).InexactFloat64()
}

// CreateCheckoutSession opens a hosted payment page for the user's cart.
func (s *OrderService) CreateCheckoutSession(ctx context.Context, userID string) (entity.CheckoutSession, error) {
	items, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return entity.CheckoutSession{}, err
	}
	if len(items) == 0 {
		return entity.CheckoutSession{}, ErrEmptyCart
	}

	req := entity.CheckoutRequest{
		Currency:   s.cfg.Currency,
		Items:      make([]entity.LineItem, len(items)),
		SuccessURL: s.cfg.FrontendURL + "/checkout/success",
		CancelURL:  s.cfg.FrontendURL + "/checkout/cancel",
		Reference:  userID,
	}
	for i, it := range items {
		req.Items[i] = entity.LineItem{Name: it.Product.Title, UnitPrice: it.Product.Price, Quantity: it.Quantity}
	}

	sess, err := s.payments.CreateCheckoutSession(ctx, req)
	if err != nil {
		return entity.CheckoutSession{}, fmt.Errorf("checkout session: %w", err)
	}
	return sess, nil
}

// PlaceOrder snapshots the cart into an order and empties the cart. Both
// writes run as a saga so a failed cart clear deletes the order again.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string) (entity.Order, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return entity.Order{}, fmt.Errorf("user: %w", err)
	}
	items, err := s.carts.join(ctx, u.Cart)
	if err != nil {
		return entity.Order{}, err
	}
	if len(items) == 0 {
		return entity.Order{}, ErrEmptyCart
	}

	order := entity.Order{
		UserID:    userID,
		Lines:     make([]entity.OrderLine, len(items)),
		Total:     Total(items),
		CreatedAt: s.now().UTC(),
	}
	for i, it := range items {
		order.Lines[i] = entity.OrderLine{Product: it.Product, Quantity: it.Quantity}
	}

	create := coordinator.NewCreateOrderStep(s.orders, order)
	steps := []coordinator.Step{
		create,
		coordinator.NewClearCartStep(s.users, userID, u.Cart),
	}
	saga := coordinator.NewOrchestrator(uuid.NewString(), steps, s.cfg.SagaLog).
		WithPayload(map[string]any{"user_id": userID, "lines": len(order.Lines), "total": order.Total})

	err = saga.Start(ctx)
	if s.cfg.Observer != nil {
		s.cfg.Observer.OrderPlaced(err == nil)
	}
	if err != nil {
		return entity.Order{}, fmt.Errorf("place order: %w", err)
	}

	placed := create.Order()
	slog.InfoContext(ctx, "order placed", "order_id", placed.ID, "user_id", userID, "total", placed.Total)
	return placed, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]entity.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
