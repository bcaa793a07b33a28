package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/api"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/config"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/database"
	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/observability"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/storage"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/upstream"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/widget"
)

const shutdownTimeout = 15 * time.Second

// App holds the wired components of the HTTP front-end.
type App struct {
	Config  *config.Config
	Storage *storage.Adapter
	Manager *widget.Manager
	Server  *http.Server
}

// NewApp builds storage, the upstream client, the widget manager and the
// HTTP server from cfg. Nothing is listening until Serve is called.
func NewApp(cfg *config.Config) (*App, error) {
	adapter, err := OpenStorage(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	manager := NewManager(cfg, adapter)

	handler := api.NewWidgetHandler(manager, cfg.AllowedOrigins())
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return &App{Config: cfg, Storage: adapter, Manager: manager, Server: server}, nil
}

// OpenStorage connects the persistence backend selected by STORAGE_BACKEND.
func OpenStorage(ctx context.Context, cfg *config.Config) (*storage.Adapter, error) {
	switch cfg.StorageBackend {
	case "", "memory":
		return storage.NewAdapter(storage.NewMemoryStore(cfg.StorageMemoryQuota), ""), nil
	case "sqlite":
		db, err := database.Open(cfg.StorageSQLitePath, cfg.StorageSQLiteMaxPages)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", app_errors.ErrStorage, err)
		}
		slog.Info("Successfully connected to SQLite database.", "path", cfg.StorageSQLitePath)
		return storage.NewAdapter(storage.NewSQLiteStore(db), ""), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.StorageRedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("%w: redis ping %s: %v", app_errors.ErrStorage, cfg.StorageRedisAddr, err)
		}
		slog.Info("Successfully connected to Redis.", "addr", cfg.StorageRedisAddr)
		return storage.NewAdapter(storage.NewRedisStore(rdb, cfg.StorageRedisTTL), ""), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", app_errors.ErrConfiguration, cfg.StorageBackend)
	}
}

// NewManager builds a widget manager backed by adapter and the configured upstream.
func NewManager(cfg *config.Config, adapter *storage.Adapter) *widget.Manager {
	var client upstream.Client
	if cfg.HasCredentials() {
		client = upstream.NewHTTPClient(cfg.UpstreamURL, cfg.UpstreamAPIKey, &http.Client{Timeout: cfg.UpstreamTimeout})
	} else {
		slog.Warn("No upstream API key configured; conversations stay local.")
	}
	return widget.NewManager(widget.Deps{
		Client:                  client,
		HasCredentials:          cfg.HasCredentials(),
		Storage:                 adapter,
		MergeWindow:             cfg.PendingMergeWindow,
		DefaultMaxConversations: cfg.DefaultMaxConversations,
	})
}

// Serve listens until ctx is cancelled, then drains connections and closes
// every widget instance.
func (a *App) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", a.Config.AppPort)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Manager.Close(shutdownCtx)
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.Storage.Close()
}

// Run loads configuration and serves until SIGINT/SIGTERM. It returns the
// process exit code.
func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	return Serve(cfg)
}

// Serve runs the HTTP front-end for an already loaded configuration.
func Serve(cfg *config.Config) int {
	observability.Setup(cfg.LogLevel)
	logConfigSource(cfg)

	a, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Serve(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		return 1
	}
	return 0
}

func logConfigSource(cfg *config.Config) {
	if src := cfg.Source(); src != "" {
		slog.Info("Successfully loaded configuration from file.", "file", src)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}
