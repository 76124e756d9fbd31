package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/gateway"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

const BuildVersion = "v0.1.0"

// Application wires the edge proxy: auth filter in front of the upstream
// router, with its own health endpoint.
type Application struct {
	cfg    Config
	logger *slog.Logger

	server *http.Server
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	proxy, err := gateway.NewProxy(cfg.Upstreams)
	if err != nil {
		return nil, err
	}

	filter := &gateway.AuthFilter{
		Verifier:       jwtx.NewHS256Verifier([]byte(cfg.SigningSecret), cfg.Issuer, time.Minute),
		Permissions:    gateway.DefaultPermissions(),
		PublicPrefixes: cfg.PublicPrefixes,
	}

	startTime := time.Now()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"uptime":  time.Since(startTime).String(),
			"version": BuildVersion,
		})
	})
	mux.Handle("/", proxy)

	app.server = &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: httpx.Chain(mux,
			slogx.HTTPMiddleware(app.logger),
			filter.Middleware,
		),
		ReadHeaderTimeout: 3 * time.Second,
	}

	return app, nil
}

// Run starts the proxy and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("gateway starting",
		"port", app.cfg.Port,
		"upstreams", len(app.cfg.Upstreams),
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests before exiting.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.logger.Info("gateway stopped")
	return nil
}
