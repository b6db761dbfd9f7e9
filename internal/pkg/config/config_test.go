package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "inr", cfg.Currency)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "mongo", cfg.StoreDriver)
}

func TestLoadFromEnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FRONTEND_URL=https://shop.example\nCACHE_TTL=30s\n"), 0o600))
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ADMIN_EMAILS", " Boss@Shop.io, ,ops@shop.io")
	t.Cleanup(func() {
		os.Unsetenv("FRONTEND_URL")
		os.Unsetenv("CACHE_TTL")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "https://shop.example", cfg.FrontendURL)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"boss@shop.io", "ops@shop.io"}, cfg.Admins())
}

func TestValidate(t *testing.T) {
	cfg := Config{StoreDriver: "postgres", JWTSecret: "x", AuthRatePerSecond: 1, AuthRateBurst: 1}
	assert.Error(t, cfg.Validate())

	cfg.StoreDriver = "memory"
	assert.NoError(t, cfg.Validate())

	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadClient(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := LoadClient(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "storage.db", filepath.Base(cfg.DBPath))

	t.Setenv("SHOP_API_URL", "https://api.shop.example")
	t.Setenv("SHOP_CLI_DB", "/tmp/cli.db")
	cfg, err = LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://api.shop.example", cfg.APIURL)
	assert.Equal(t, "/tmp/cli.db", cfg.DBPath)
}
