package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/jsonkv/internal/config"
	"github.com/JonMunkholm/jsonkv/internal/core"
	"github.com/JonMunkholm/jsonkv/internal/database"
	"github.com/JonMunkholm/jsonkv/internal/logging"
	"github.com/JonMunkholm/jsonkv/internal/metrics"
	"github.com/JonMunkholm/jsonkv/internal/panels"
	"github.com/JonMunkholm/jsonkv/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	m := metrics.New("", nil)

	// The database is optional: without it lookups and stored documents
	// are unavailable.
	var (
		lookup core.Lookup
		docs   panels.DocumentLoader
		pinger web.Pinger
	)
	if cfg.Database.Enabled() {
		pool, err := database.Connect(context.Background(), cfg.Database)
		if err != nil {
			slog.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		// Log which database we connected to
		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}

		store := database.New(pool, cfg.Lookup.Timeout)
		lookup = m.InstrumentLookup(store)
		docs = store
		pinger = store
	} else {
		slog.Warn("DATABASE_URL not set; lookups and stored documents are disabled")
	}

	registry, err := loadPanels(cfg)
	if err != nil {
		slog.Error("failed to load panels", "error", err)
		os.Exit(1)
	}
	for _, p := range registry.All() {
		slog.Debug("panel registered", "name", p.Name, "field", p.Field, "stored", p.Source != nil)
	}
	slog.Info("panels registered", "count", registry.Count())

	service := panels.NewService(registry, lookup, docs, m)
	service.LimitDocuments(panels.NewLimiter(cfg.Panels.MaxConcurrentDocuments, cfg.Panels.DocumentWait))
	server := web.NewServer(cfg, service, m, pinger)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// loadPanels reads the definitions file. A missing file at the default
// location means no panels; a missing file that was configured explicitly
// is an error.
func loadPanels(cfg *config.Config) (*panels.Registry, error) {
	defaults := cfg.Display.Options()

	registry, err := panels.LoadRegistry(cfg.Panels.File, defaults)
	if errors.Is(err, os.ErrNotExist) && os.Getenv("PANELS_FILE") == "" {
		slog.Warn("panels file not found, starting without registered panels", "file", cfg.Panels.File)
		return panels.NewRegistry(defaults), nil
	}
	return registry, err
}
