package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/storefront/internal/pkg/metrics"
	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/infra/httpx/middlewares"
)

type RouterConfig struct {
	// Metrics is optional; when set /metrics is served.
	Metrics *metrics.Metrics
	// AuthLimiter throttles /api/auth when set.
	AuthLimiter *middlewares.RateLimiter
	// Origins allowed to call the API from a browser.
	Origins []string
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := middlewares.Authenticate(handler.svc.Auth)

	r.Get("/health", handler.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthLimiter != nil {
				r.Use(cfg.AuthLimiter.Handler)
			}
			r.Post("/signup", handler.Signup)
			r.Post("/login", handler.Login)
			r.Post("/logout", handler.Logout)
			r.Post("/reset", handler.RequestReset)
			r.Post("/reset-password", handler.ResetPassword)
			r.With(requireAuth).Get("/me", handler.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", handler.ListProducts)
			r.Get("/{id}", handler.GetProduct)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", handler.CreateProduct)
				r.Put("/{id}", handler.UpdateProduct)
				r.Delete("/{id}", handler.DeleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", handler.GetCart)
			r.Post("/add", handler.AddToCart)
			r.Post("/remove", handler.RemoveFromCart)
			r.Put("/update", handler.UpdateCartItem)
			r.Delete("/clear", handler.ClearCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/checkout", handler.Checkout)
			r.Post("/", handler.CreateOrder)
			r.Get("/", handler.ListOrders)
		})

		r.With(requireAuth, middlewares.RequireRole(entity.RoleAdmin)).
			Get("/admin/dashboard", handler.Dashboard)
	})

	return otelhttp.NewHandler(r, "shop-api")
}
