package main

import (
	"context"
	"crypto/rand"
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pthm/hxboundary"
	"github.com/pthm/hxboundary/internal/config"
	"github.com/spf13/cobra"
)

// VerifyPath is where session hosts post the start records of a page.
const VerifyPath = "/_boundary/verify"

func serveCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Serve a demo page with session-hosted and auto boundaries, the
descriptor verification endpoint at ` + VerifyPath + ` and Prometheus
metrics.

Without a configured key a random one is generated, so descriptors do not
survive a restart.

Examples:
  hxboundary serve
  hxboundary serve --listen 127.0.0.1:9000 --config hxboundary.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from config)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger(os.Stderr)

	key, ok, err := cfg.DescriptorKey()
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("no descriptor key configured, using a random key")
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
	}
	protector, err := cfg.Protector(key)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           newServer(cfg, protector, NewStore(), prometheus.NewRegistry(), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// newServer wires the demo routes.
func newServer(cfg *config.Config, protector hxboundary.Protector, store *Store, reg *prometheus.Registry, logger *slog.Logger) http.Handler {
	metrics := hxboundary.NewMetrics(reg)

	registry := hxboundary.NewRegistry(protector)
	registry.SetLogger(logger)
	registry.Add(clock{}, taskRow{})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hxboundary.Middleware(
		hxboundary.WithProtector(protector),
		hxboundary.WithLogger(logger),
		hxboundary.WithMetrics(metrics),
	))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if err := hxboundary.Render(w, r, demoPage(store.List(), time.Now())); err != nil {
			logger.ErrorContext(r.Context(), "render page", slog.Any("error", err))
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	})
	r.Post("/tasks/{id}/toggle", func(w http.ResponseWriter, r *http.Request) {
		if !store.Toggle(chi.URLParam(r, "id")) {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodPost, VerifyPath, registry.Handler())

	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return r
}
