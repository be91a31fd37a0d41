// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/noam/updown/internal/api"
	"github.com/noam/updown/internal/document"
	"github.com/noam/updown/internal/navigator"
	"github.com/noam/updown/internal/prefs"
	"github.com/noam/updown/internal/recent"
	"github.com/noam/updown/internal/report"
	"github.com/noam/updown/internal/sse"
	"github.com/noam/updown/internal/storage"
	"github.com/noam/updown/internal/watch"
)

// buildProvider constructs the startup storage provider from config.
func buildProvider(cfg *Config, dialogs storage.DialogService) (storage.Provider, error) {
	switch cfg.Storage.Mode {
	case StorageModeCloud:
		return storage.NewCloud(cfg.Storage.Cloud.BaseURL, storage.StaticToken(cfg.Storage.Cloud.Token), nil, dialogs)
	case StorageModeGuest:
		return storage.NewGuest(), nil
	default:
		if err := os.MkdirAll(cfg.Storage.Workspace, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace dir: %w", err)
		}
		return storage.NewLocal(cfg.Storage.Workspace, dialogs)
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_mode", cfg.Storage.Mode),
		slog.String("prefs_path", cfg.Prefs.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Preference store.
	store, err := prefs.Open(cfg.Prefs.Path)
	if err != nil {
		return fmt.Errorf("init prefs: %w", err)
	}
	defer store.Close()

	// Storage provider registry.
	provider, err := buildProvider(cfg, app.dialogs)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	reg := storage.NewRegistry(provider)

	// SSE broker pushes core notifications to the host UI.
	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	// Error surface: every reported failure reaches the UI and the log.
	reporter := report.Func(func(msg string) {
		logger.Error("reported to user", slog.String("message", msg))
		broker.PublishError(msg)
	})

	// Document lifecycle manager with its notification channels.
	docs := document.NewManager(reg, document.Observer{
		DirtyChanged:    broker.PublishDirtyChanged,
		DocumentChanged: broker.PublishDocumentChanged,
	}, reporter)

	// Folder navigator, synchronized to the open document by the API layer.
	nav := navigator.New(reg, store, logger)
	nav.OnListing(func(l navigator.Listing) {
		broker.Publish(sse.Event{Type: sse.EventFolderListing, Data: l})
	})

	// Recent files; only local identities can be probed for existence.
	var exists recent.ExistsFunc
	if cfg.Storage.Mode == StorageModeLocal {
		exists = func(id string) bool {
			_, statErr := os.Stat(id)
			return statErr == nil
		}
	}
	recents := recent.New(store, exists)
	if err := recents.Load(); err != nil {
		logger.Warn("load recent files failed", slog.String("error", err.Error()))
	}

	// Seed the folder panel.
	if err := nav.Start(ctx); err != nil {
		logger.Warn("initial navigation failed", slog.String("error", err.Error()))
	}

	// Build API handler and router.
	h := api.NewHandler(docs, nav, reg, store, recents)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the local workspace for external changes.
	if local, ok := provider.(*storage.Local); ok {
		g.Go(func() error {
			return watch.Watch(gCtx, local.Root(), logger, func(paths []string) {
				for _, p := range paths {
					broker.PublishFolderChanged(p)
				}
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
