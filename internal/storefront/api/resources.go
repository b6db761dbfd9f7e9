package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jcmexdev/storefront/internal/pkg/ident"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/catalog"
)

// maxPages bounds ListProducts against a backend that never stops paging.
const maxPages = 1000

type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type ProductPage struct {
	Products   []catalog.Product `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Session is the outcome of a successful login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

type OrderLine struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

type Order struct {
	ID        string      `json:"_id"`
	UserID    string      `json:"userId"`
	Products  []OrderLine `json:"products"`
	Total     float64     `json:"total"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Dashboard struct {
	UsersCount    int64   `json:"usersCount"`
	ProductsCount int64   `json:"productsCount"`
	CartCount     int64   `json:"cartCount"`
	Revenue       float64 `json:"revenue"`
}

func productPath(id ident.ID) string {
	return "/api/products/" + url.PathEscape(id.String())
}

// ProductsPage fetches a single catalog page (1-based).
func (c *Client) ProductsPage(ctx context.Context, page int) (ProductPage, error) {
	var out ProductPage
	err := c.do(ctx, http.MethodGet, "/api/products?page="+strconv.Itoa(page), nil, &out)
	return out, err
}

// ListProducts walks every catalog page and returns the products in fetch
// order.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var all []catalog.Product
	for page := 1; page <= maxPages; page++ {
		p, err := c.ProductsPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Products...)
		if !p.Pagination.HasNextPage {
			return all, nil
		}
	}
	return nil, fmt.Errorf("api: catalog exceeds %d pages", maxPages)
}

func (c *Client) GetProduct(ctx context.Context, id ident.ID) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, http.MethodGet, productPath(id), nil, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, d catalog.Draft) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, http.MethodPost, "/api/products", d, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, id ident.ID, d catalog.Draft) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, http.MethodPut, productPath(id), d, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id ident.ID) error {
	return c.do(ctx, http.MethodDelete, productPath(id), nil, nil)
}

// cartLine is a server cart entry with its product populated. Product is nil
// when the referenced product no longer exists.
type cartLine struct {
	Product  *catalog.Product `json:"productId"`
	Quantity int              `json:"quantity"`
}

type cartBody struct {
	Cart []cartLine `json:"cart"`
}

type cartMutation struct {
	ProductID ident.ID `json:"productId"`
	Quantity  int      `json:"quantity,omitempty"`
}

func (b cartBody) items() []cart.Item {
	out := make([]cart.Item, 0, len(b.Cart))
	for _, l := range b.Cart {
		if l.Product == nil {
			continue
		}
		out = append(out, cart.Item{
			ID:       l.Product.ID,
			Quantity: l.Quantity,
			Title:    l.Product.Title,
			Price:    l.Product.Price,
			Image:    l.Product.Image,
		})
	}
	return out
}

func (c *Client) cartCall(ctx context.Context, method, path string, in any) ([]cart.Item, error) {
	var out cartBody
	if err := c.do(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return out.items(), nil
}

// Cart returns the authoritative server cart.
func (c *Client) Cart(ctx context.Context) ([]cart.Item, error) {
	return c.cartCall(ctx, http.MethodGet, "/api/cart", nil)
}

func (c *Client) AddToCart(ctx context.Context, id ident.ID, qty int) ([]cart.Item, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/add", cartMutation{ProductID: id, Quantity: qty})
}

func (c *Client) RemoveFromCart(ctx context.Context, id ident.ID) ([]cart.Item, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/remove", cartMutation{ProductID: id})
}

func (c *Client) UpdateCartItem(ctx context.Context, id ident.ID, qty int) ([]cart.Item, error) {
	return c.cartCall(ctx, http.MethodPut, "/api/cart/update", cartMutation{ProductID: id, Quantity: qty})
}

func (c *Client) ClearCart(ctx context.Context) ([]cart.Item, error) {
	return c.cartCall(ctx, http.MethodDelete, "/api/cart/clear", nil)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Signup(ctx context.Context, email, password string) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", credentials{email, password}, &out)
	return out.User, err
}

// Login authenticates and returns the bearer token. It does not install the
// token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{email, password}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out)
	return out.User, err
}

// RequestPasswordReset returns the reset link generated by the backend.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var out struct {
		ResetURL string `json:"resetUrl"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/reset", map[string]string{"email": email}, &out)
	return out.ResetURL, err
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	in := map[string]string{"token": token, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", in, nil)
}

func (c *Client) Checkout(ctx context.Context) (CheckoutSession, error) {
	var out CheckoutSession
	err := c.do(ctx, http.MethodPost, "/api/orders/checkout", nil, &out)
	return out, err
}

func (c *Client) PlaceOrder(ctx context.Context) (Order, error) {
	var out struct {
		Order Order `json:"order"`
	}
	err := c.do(ctx, http.MethodPost, "/api/orders", nil, &out)
	return out.Order, err
}

func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out)
	return out.Orders, err
}

func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	err := c.do(ctx, http.MethodGet, "/api/admin/dashboard", nil, &out)
	return out, err
}
