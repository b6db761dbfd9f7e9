// Package config loads process configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string `env:"APP_ENV,default=local"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	HTTPPort string `env:"PORT,default=8080"`
	GRPCPort string `env:"GRPC_PORT,default=9090"`

	// StoreDriver selects the persistence adapter: mongo or memory.
	StoreDriver string `env:"STORE_DRIVER,default=mongo"`
	MongoURI    string `env:"MONGODB_URI,default=mongodb://localhost:27017"`
	MongoDB     string `env:"MONGODB_DATABASE,default=storefront"`

	// RedisAddr enables the catalog cache when set.
	RedisAddr string        `env:"REDIS_ADDR"`
	CacheTTL  time.Duration `env:"CACHE_TTL,default=5m"`

	JWTSecret   string `env:"JWT_SECRET,default=change-me"`
	FrontendURL string `env:"FRONTEND_URL,default=http://localhost:5173"`
	AdminEmails string `env:"ADMIN_EMAILS"`

	StripeKey string `env:"STRIPE_SECRET_KEY"`
	Currency  string `env:"CHECKOUT_CURRENCY,default=inr"`

	SagaLogPath  string `env:"SAGA_LOG_PATH,default=./data/saga.db"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME,default=shop-api"`

	AuthRatePerSecond int `env:"AUTH_RATE_PER_SECOND,default=5"`
	AuthRateBurst     int `env:"AUTH_RATE_BURST,default=10"`
}

// Load reads .env files (missing files are ignored) and decodes the
// environment into a Config.
func Load(files ...string) (Config, error) {
	var cfg Config
	if err := decode(&cfg, files); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("config: STORE_DRIVER must be mongo or memory, got %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.AuthRatePerSecond <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("config: auth rate limit must be positive")
	}
	return nil
}

// Admins returns the lower-cased emails granted the admin role at signup.
func (c Config) Admins() []string {
	var out []string
	for _, e := range strings.Split(c.AdminEmails, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	APIURL   string `env:"SHOP_API_URL,default=http://localhost:8080"`
	DBPath   string `env:"SHOP_CLI_DB"`
	LogLevel string `env:"SHOP_CLI_LOG_LEVEL,default=warn"`
}

// LoadClient decodes a ClientConfig the same way Load does. An empty DBPath
// resolves to storage.db under the user config directory.
func LoadClient(files ...string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := decode(&cfg, files); err != nil {
		return ClientConfig{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "shop-cli.db"
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.DBPath = filepath.Join(dir, "shop-cli", "storage.db")
		}
	}
	return cfg, nil
}

func decode(target any, files []string) error {
	_ = godotenv.Load(files...)
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("config: decode env: %w", err)
	}
	return nil
}
