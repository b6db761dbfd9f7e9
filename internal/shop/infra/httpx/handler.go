package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/jcmexdev/storefront/internal/shop/core/app"
)

type Services struct {
	Auth    *app.AuthService
	Catalog *app.CatalogService
	Carts   *app.CartService
	Orders  *app.OrderService
	Admin   *app.AdminService
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler handles incoming HTTP requests for the shop.
type Handler struct {
	svc          Services
	secureCookie bool
	checks       map[string]HealthCheck
}

type HandlerOption func(*Handler)

// WithSecureCookie marks the login cookie Secure.
func WithSecureCookie(secure bool) HandlerOption {
	return func(h *Handler) { h.secureCookie = secure }
}

func WithHealthCheck(name string, check HealthCheck) HandlerOption {
	return func(h *Handler) { h.checks[name] = check }
}

func NewHandler(svc Services, opts ...HandlerOption) *Handler {
	h := &Handler{svc: svc, checks: make(map[string]HealthCheck)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health runs every registered check with a short deadline.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	out := map[string]string{"status": "ok"}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			out["status"] = "degraded"
			out[name] = err.Error()
			continue
		}
		out[name] = "ok"
	}
	writeJSON(w, status, out)
}
