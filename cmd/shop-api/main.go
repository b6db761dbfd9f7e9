package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	sagasqlite "github.com/jcmexdev/storefront/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront/internal/pkg/metrics"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront/internal/shop/core/app"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
	"github.com/jcmexdev/storefront/internal/shop/infra/adapters/memstore"
	"github.com/jcmexdev/storefront/internal/shop/infra/adapters/mongostore"
	"github.com/jcmexdev/storefront/internal/shop/infra/adapters/payment"
	"github.com/jcmexdev/storefront/internal/shop/infra/adapters/security"
	"github.com/jcmexdev/storefront/internal/shop/infra/httpx"
	"github.com/jcmexdev/storefront/internal/shop/infra/httpx/middlewares"
)

type repositories struct {
	products ports.ProductRepository
	users    ports.UserRepository
	orders   ports.OrderRepository
	ping     httpx.HealthCheck
	close    func(context.Context) error
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	telemetry.InitLogger(telemetry.LoggerOptions{
		Service: cfg.ServiceName,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("shop-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.AppEnv)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = repos.close(closeCtx)
	}()

	sagaLog, err := openSagaLog(ctx, cfg.SagaLogPath)
	if err != nil {
		return err
	}
	if sagaLog != nil {
		defer sagaLog.Close()
	}

	m := metrics.New("shop")
	handler := buildHandler(cfg, repos, sagaLog, m)

	limiter := middlewares.NewRateLimiter(cfg.AuthRatePerSecond, cfg.AuthRateBurst)
	limiter.StartCleanup(ctx, 10*time.Minute)

	httpServer := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: httpx.NewRouter(handler, httpx.RouterConfig{
			Metrics:     m,
			AuthLimiter: limiter,
			Origins:     []string{strings.TrimSuffix(cfg.FrontendURL, "/")},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := newGRPCServer()
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("shop API running", "addr", httpServer.Addr, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		slog.Info("gRPC health running", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("shutting down")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	grpcServer.GracefulStop()
	return httpServer.Shutdown(shutdownCtx)
}

func openRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	if cfg.StoreDriver == "memory" {
		slog.Warn("using in-memory store, data is lost on restart")
		return repositories{
			products: memstore.NewProductRepository(),
			users:    memstore.NewUserRepository(),
			orders:   memstore.NewOrderRepository(),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return repositories{}, err
	}
	return repositories{
		products: store.Products(),
		users:    store.Users(),
		orders:   store.Orders(),
		ping:     store.Ping,
		close:    store.Close,
	}, nil
}

// openSagaLog returns nil when path is empty.
func openSagaLog(ctx context.Context, path string) (*sagasqlite.Repository, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	repo, err := sagasqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if n, err := repo.CountUnfinished(ctx); err == nil && n > 0 {
		slog.Warn("unfinished sagas from a previous run", "count", n, "path", path)
	}
	return repo, nil
}

func buildHandler(cfg config.Config, repos repositories, sagaLog *sagasqlite.Repository, m *metrics.Metrics) *httpx.Handler {
	catalogOpts := []app.CatalogOption{app.WithCacheObserver(m)}
	var checks []httpx.HandlerOption
	if cfg.RedisAddr != "" {
		c := cache.NewRedisCache(cfg.RedisAddr, "shop")
		catalogOpts = append(catalogOpts, app.WithCache(c, cfg.CacheTTL))
		checks = append(checks, httpx.WithHealthCheck("redis", func(ctx context.Context) error {
			_, err := c.Get(ctx, c.GenerateKey("health", "ping"))
			return err
		}))
	}
	if repos.ping != nil {
		checks = append(checks, httpx.WithHealthCheck("mongo", repos.ping))
	}

	var gateway ports.PaymentGateway = payment.Offline{}
	if cfg.StripeKey != "" {
		gateway = payment.NewStripe(cfg.StripeKey)
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set, checkout sessions are simulated")
	}

	orderCfg := app.OrderConfig{
		Currency:    cfg.Currency,
		FrontendURL: cfg.FrontendURL,
		Observer:    m,
	}
	if sagaLog != nil {
		orderCfg.SagaLog = sagaLog
	}

	carts := app.NewCartService(repos.users, repos.products)
	services := httpx.Services{
		Auth: app.NewAuthService(repos.users, security.BcryptHasher{}, security.NewJWTIssuer(cfg.JWTSecret, 0),
			cfg.Admins(), cfg.FrontendURL),
		Catalog: app.NewCatalogService(repos.products, catalogOpts...),
		Carts:   carts,
		Orders:  app.NewOrderService(carts, repos.users, repos.orders, gateway, orderCfg),
		Admin:   app.NewAdminService(repos.users, repos.products, repos.orders),
	}

	opts := append([]httpx.HandlerOption{httpx.WithSecureCookie(cfg.IsProduction())}, checks...)
	return httpx.NewHandler(services, opts...)
}

func newGRPCServer() (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.UnaryServerInterceptor(),
			interceptors.TraceServerInterceptor(),
		),
	)
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	return grpcServer, healthServer
}
