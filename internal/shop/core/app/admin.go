package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

type AdminService struct {
	users    ports.UserRepository
	products ports.ProductRepository
	orders   ports.OrderRepository
}

func NewAdminService(users ports.UserRepository, products ports.ProductRepository, orders ports.OrderRepository) *AdminService {
	return &AdminService{users: users, products: products, orders: orders}
}

// Dashboard gathers the store-wide counters concurrently.
func (s *AdminService) Dashboard(ctx context.Context) (entity.Dashboard, error) {
	var d entity.Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() (err error) {
		d.UsersCount, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.ProductsCount, err = s.products.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.CartCount, err = s.users.CountWithCart(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Revenue, err = s.orders.Revenue(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return entity.Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}
	return d, nil
}
