// Command shop-cli is a terminal storefront. The cart and the login session
// persist in a local SQLite file between runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront/internal/storefront/api"
	"github.com/jcmexdev/storefront/internal/storefront/state"
	"github.com/jcmexdev/storefront/internal/storefront/storage"
)

const usage = `usage: shop-cli [flags] <command> [args]

commands:
  products [-search term] [-category c] [-sort none|priceLow|priceHigh|rating]
  categories
  cart [show]
  cart add <id> [qty] | inc <id> | dec <id> | set <id> <qty> | remove <id> | clear
  register <email> <password>
  login <email> <password>
  logout
  whoami
  reset <email>
  reset-password <token> <password>
  checkout
  order
  orders
  dashboard

flags:
`

func main() {
	cfg, err := config.LoadClient(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	apiURL := flag.String("api", cfg.APIURL, "shop API base URL (SHOP_API_URL)")
	dbPath := flag.String("db", cfg.DBPath, "local storage file (SHOP_CLI_DB)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logger := telemetry.InitLogger(telemetry.LoggerOptions{Service: "shop-cli", Level: level})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *apiURL, *dbPath, logger, os.Stdout, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, apiURL, dbPath string, logger *slog.Logger, out io.Writer, args []string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}
	local, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer local.Close()

	client := api.New(apiURL)
	store := state.New(client, local, state.WithLogger(logger))
	defer store.Close()

	if _, err := store.RestoreSession(ctx); err != nil {
		return err
	}

	c := &cli{store: store, client: client, out: out}
	return c.exec(ctx, args)
}
