/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rent ledger server. Handles configuration,
  dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Read RENTLEDGER_* environment variables, then apply flag overrides
  2. Build the root logger (text or JSON)
  3. Open the SQLite store
  4. Wire the ledger engine, API handler, and backfill scheduler
  5. Start the server with graceful shutdown

CONFIGURATION:
  Environment variables are read first; flags override them.

  RENTLEDGER_ADDR               -addr               listen address (default :8080)
  RENTLEDGER_DB                 -db                 SQLite path (":memory:" works)
  RENTLEDGER_LOG_FORMAT         -log-format         "text" or "json"
  RENTLEDGER_LOG_LEVEL          -log-level          debug|info|warn|error
  RENTLEDGER_BACKFILL_INTERVAL  -backfill-interval  e.g. "1h"; 0 disables

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the backfill scheduler (waits for an in-flight run)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the database

EXAMPLES:
  # Run with file database
  ./server -db="./data/rentledger.db"

  # Hourly automatic backfill, JSON logs
  RENTLEDGER_LOG_FORMAT=json ./server -backfill-interval=1h

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/warp/rent-ledger/api"
	"github.com/warp/rent-ledger/ledger"
	"github.com/warp/rent-ledger/store/sqlite"
)

// Config is the server configuration, filled from RENTLEDGER_* variables
// and then overridden by flags.
type Config struct {
	Addr             string        `envconfig:"ADDR" default:":8080"`
	DB               string        `envconfig:"DB" default:"rentledger.db"`
	LogFormat        string        `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	BackfillInterval time.Duration `envconfig:"BACKFILL_INTERVAL" default:"0"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("rentledger", &cfg); err != nil {
		slog.Error("bad environment configuration", "error", err)
		os.Exit(1)
	}

	// Flags override the environment; their defaults are the env values.
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.DB, "db", cfg.DB, `SQLite database path (":memory:" for in-memory)`)
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.DurationVar(&cfg.BackfillInterval, "backfill-interval", cfg.BackfillInterval,
		"automatic backfill interval (0 disables)")
	flag.Parse()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.DB)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "db", cfg.DB)
		os.Exit(1)
	}
	defer store.Close()

	// Wire the engine and collaborators
	engine := ledger.NewEngine(store, nil)
	handler := api.NewHandler(engine, logger)
	scheduler := api.NewBackfillScheduler(engine, cfg.BackfillInterval, logger)
	scheduler.Start()

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "db", cfg.DB)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newLogger builds the root logger from config. Unknown levels fall back
// to info rather than refusing to start.
func newLogger(cfg Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
