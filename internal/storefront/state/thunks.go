package state

import (
	"context"

	"github.com/jcmexdev/storefront/internal/pkg/ident"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/catalog"
)

// Every method here runs its network call on its own goroutine and
// dispatches exactly one outcome. The returned channel yields the call's
// error (nil on success) and is then closed.

func (s *Store) async(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- fn(ctx)
	}()
	return done
}

// settle dispatches an outcome even when the caller's context is gone.
func (s *Store) settle(ctx context.Context, a Action) {
	if _, err := s.Dispatch(context.WithoutCancel(ctx), a); err != nil {
		s.log.WarnContext(ctx, "outcome dropped", "error", err)
	}
}

// ---- products ----

// FetchProducts replaces the product list with every catalog page.
func (s *Store) FetchProducts(ctx context.Context) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, productsRequested{}); err != nil {
			return err
		}
		items, err := s.backend.ListProducts(ctx)
		if err != nil {
			s.settle(ctx, productsFailed{err: message(err)})
			return err
		}
		s.settle(ctx, productsLoaded{items: items})
		return nil
	})
}

func (s *Store) CreateProduct(ctx context.Context, d catalog.Draft) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		p, err := s.backend.CreateProduct(ctx, d)
		if err != nil {
			s.settle(ctx, productsFailed{err: message(err)})
			return err
		}
		s.settle(ctx, productSaved{product: p})
		return nil
	})
}

func (s *Store) UpdateProduct(ctx context.Context, id ident.ID, d catalog.Draft) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		p, err := s.backend.UpdateProduct(ctx, id, d)
		if err != nil {
			s.settle(ctx, productsFailed{err: message(err)})
			return err
		}
		s.settle(ctx, productSaved{product: p})
		return nil
	})
}

func (s *Store) DeleteProduct(ctx context.Context, id ident.ID) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if err := s.backend.DeleteProduct(ctx, id); err != nil {
			s.settle(ctx, productsFailed{err: message(err)})
			return err
		}
		s.settle(ctx, productRemoved{id: id})
		return nil
	})
}

// ---- server cart ----

// settleCart applies the server's answer to a cart call. On failure the
// optimistic state stays and the touched ids are marked failed.
func (s *Store) settleCart(ctx context.Context, items []cart.Item, err error, ids ...ident.ID) error {
	if err != nil {
		s.settle(ctx, cartFailed{ids: ids, err: message(err)})
		return err
	}
	s.settle(ctx, cartReplaced{items: items})
	return nil
}

func (s *Store) FetchCart(ctx context.Context) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, cartRequested{}); err != nil {
			return err
		}
		items, err := s.backend.Cart(ctx)
		return s.settleCart(ctx, items, err)
	})
}

// AddToCartServer merges item locally as pending, then confirms it with the
// server.
func (s *Store) AddToCartServer(ctx context.Context, item cart.Item) <-chan error {
	item.Sync = cart.SyncPending
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, AddItem{Item: item}); err != nil {
			return err
		}
		items, err := s.backend.AddToCart(ctx, item.ID, item.Quantity)
		return s.settleCart(ctx, items, err, item.ID)
	})
}

func (s *Store) IncrementServer(ctx context.Context, id ident.ID) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		st, err := s.Dispatch(ctx, IncrementItem{ID: id, sync: cart.SyncPending})
		if err != nil {
			return err
		}
		i := cart.Find(st.Cart.Items, id)
		if i < 0 {
			return nil
		}
		items, err := s.backend.UpdateCartItem(ctx, id, st.Cart.Items[i].Quantity)
		return s.settleCart(ctx, items, err, id)
	})
}

// DecrementServer lowers the quantity by one, or removes the entry at 1, and
// confirms with the matching server call.
func (s *Store) DecrementServer(ctx context.Context, id ident.ID) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if err := requireID(id); err != nil {
			return err
		}
		if cart.Find(s.State().Cart.Items, id) < 0 {
			return nil
		}
		st, err := s.Dispatch(ctx, DecrementItem{ID: id, sync: cart.SyncPending})
		if err != nil {
			return err
		}
		if i := cart.Find(st.Cart.Items, id); i >= 0 {
			items, err := s.backend.UpdateCartItem(ctx, id, st.Cart.Items[i].Quantity)
			return s.settleCart(ctx, items, err, id)
		}
		items, err := s.backend.RemoveFromCart(ctx, id)
		return s.settleCart(ctx, items, err)
	})
}

// UpdateQuantityServer sets the quantity; zero removes the entry.
func (s *Store) UpdateQuantityServer(ctx context.Context, id ident.ID, qty int) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if err := (SetQuantity{ID: id, Quantity: qty}).validate(); err != nil {
			return err
		}
		if cart.Find(s.State().Cart.Items, id) < 0 {
			return nil
		}
		if _, err := s.Dispatch(ctx, SetQuantity{ID: id, Quantity: qty, sync: cart.SyncPending}); err != nil {
			return err
		}
		if qty > 0 {
			items, err := s.backend.UpdateCartItem(ctx, id, qty)
			return s.settleCart(ctx, items, err, id)
		}
		items, err := s.backend.RemoveFromCart(ctx, id)
		return s.settleCart(ctx, items, err)
	})
}

func (s *Store) RemoveServer(ctx context.Context, id ident.ID) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, RemoveItem{ID: id}); err != nil {
			return err
		}
		items, err := s.backend.RemoveFromCart(ctx, id)
		return s.settleCart(ctx, items, err)
	})
}

func (s *Store) ClearServer(ctx context.Context) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, ClearCart{}); err != nil {
			return err
		}
		items, err := s.backend.ClearCart(ctx)
		return s.settleCart(ctx, items, err)
	})
}

// ---- orders ----

// PlaceOrder turns the server cart into an order and empties the local cart.
func (s *Store) PlaceOrder(ctx context.Context) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, ordersRequested{}); err != nil {
			return err
		}
		o, err := s.backend.PlaceOrder(ctx)
		if err != nil {
			s.settle(ctx, ordersFailed{err: message(err)})
			return err
		}
		s.settle(ctx, orderPlaced{order: o})
		return nil
	})
}

// Checkout asks the server for a hosted checkout session.
func (s *Store) Checkout(ctx context.Context) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, ordersRequested{}); err != nil {
			return err
		}
		sess, err := s.backend.Checkout(ctx)
		if err != nil {
			s.settle(ctx, ordersFailed{err: message(err)})
			return err
		}
		s.settle(ctx, checkoutCreated{session: sess})
		return nil
	})
}

func (s *Store) FetchOrders(ctx context.Context) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, ordersRequested{}); err != nil {
			return err
		}
		orders, err := s.backend.Orders(ctx)
		if err != nil {
			s.settle(ctx, ordersFailed{err: message(err)})
			return err
		}
		s.settle(ctx, ordersLoaded{orders: orders})
		return nil
	})
}

// ---- auth ----

func (s *Store) Login(ctx context.Context, email, password string) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, authRequested{}); err != nil {
			return err
		}
		return s.login(ctx, email, password)
	})
}

func (s *Store) login(ctx context.Context, email, password string) error {
	sess, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.settle(ctx, authFailed{err: message(err)})
		return err
	}
	s.settle(ctx, loggedIn{session: sess})
	return nil
}

// Register signs up and then logs in with the same credentials.
func (s *Store) Register(ctx context.Context, email, password string) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, authRequested{}); err != nil {
			return err
		}
		if _, err := s.backend.Signup(ctx, email, password); err != nil {
			s.settle(ctx, authFailed{err: message(err)})
			return err
		}
		return s.login(ctx, email, password)
	})
}

// Logout ends the session locally even when the server call fails.
func (s *Store) Logout(ctx context.Context) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if err := s.backend.Logout(ctx); err != nil {
			s.log.WarnContext(ctx, "server logout failed", "error", err)
		}
		s.settle(ctx, loggedOut{})
		return nil
	})
}

// RestoreSession reinstates the token and user persisted by a previous
// login. It reports whether a session was found.
func (s *Store) RestoreSession(ctx context.Context) (bool, error) {
	sess, ok := s.storedSession(ctx)
	if !ok {
		return false, nil
	}
	if _, err := s.Dispatch(ctx, sessionRestored{session: sess}); err != nil {
		return false, err
	}
	return true, nil
}

// FetchProfile refreshes the user from the server, falling back to the
// stored user when the call fails.
func (s *Store) FetchProfile(ctx context.Context) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, authRequested{}); err != nil {
			return err
		}
		u, err := s.backend.Profile(ctx)
		if err == nil {
			s.settle(ctx, profileLoaded{user: u})
			return nil
		}
		if sess, ok := s.storedSession(ctx); ok {
			s.log.WarnContext(ctx, "profile fetch failed, using stored user", "error", err)
			s.settle(ctx, profileLoaded{user: sess.User})
			return nil
		}
		s.settle(ctx, authFailed{err: message(err)})
		return err
	})
}

// ---- admin ----

func (s *Store) FetchDashboard(ctx context.Context) <-chan error {
	return s.async(ctx, func(ctx context.Context) error {
		if _, err := s.Dispatch(ctx, dashboardRequested{}); err != nil {
			return err
		}
		d, err := s.backend.Dashboard(ctx)
		if err != nil {
			s.settle(ctx, dashboardFailed{err: message(err)})
			return err
		}
		s.settle(ctx, dashboardLoaded{dashboard: d})
		return nil
	})
}
