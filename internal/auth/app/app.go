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

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/gatekeep/internal/auth/directory"
	httpapi "github.com/aussiebroadwan/gatekeep/internal/auth/http"
	"github.com/aussiebroadwan/gatekeep/internal/auth/ratelimit"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeep/internal/auth/ticket"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          store.Store
	redisClient *redis.Client

	// Ephemeral stores. The memory variants carry their own sweepers and
	// are nil when Redis is configured.
	ticketStore      ticket.Store
	ticketMemory     *ticket.MemoryStore
	rateWindowMemory *ratelimit.MemoryStore
	limiter          *ratelimit.Limiter

	// Services
	tokenService        *service.TokenService
	sessionService      *service.SessionService
	mfaService          *service.MFAService
	authService         *service.AuthService
	housekeepingService *service.HousekeepingService

	ticketBroker *ticket.Broker

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initEphemeralStores(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()
	if app.ticketMemory != nil {
		app.ticketMemory.Start()
	}
	if app.rateWindowMemory != nil {
		app.rateWindowMemory.Start(time.Minute)
	}

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	if app.ticketMemory != nil {
		app.ticketMemory.Stop()
	}
	if app.rateWindowMemory != nil {
		app.rateWindowMemory.Stop()
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initEphemeralStores picks memory or Redis backends for tickets and rate
// windows. Redis keeps both guarantees intact across multiple instances.
func (app *Application) initEphemeralStores() error {
	var rateWindows ratelimit.WindowStore

	if app.cfg.RedisURL != "" {
		opts, err := redis.ParseURL(app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		app.redisClient = redis.NewClient(opts)

		if err := app.redisClient.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		app.ticketStore = ticket.NewRedisStore(app.redisClient, "gatekeep:ticket")
		rateWindows = ratelimit.NewRedisStore(app.redisClient, "gatekeep:ratelimit")
		app.logger.Info("ephemeral stores backed by redis")
	} else {
		app.ticketMemory = ticket.NewMemoryStore()
		app.ticketStore = app.ticketMemory
		app.rateWindowMemory = ratelimit.NewMemoryStore()
		rateWindows = app.rateWindowMemory
		app.logger.Info("ephemeral stores in process memory, single instance only")
	}

	app.ticketBroker = ticket.NewBroker(app.ticketStore, ticket.DefaultTTL)
	app.limiter = ratelimit.New(rateWindows)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	secret := []byte(app.cfg.SigningSecret)
	users := directory.NewHTTPDirectory(app.cfg.DirectoryURL, app.cfg.InternalCredential)
	mailer := directory.NewHTTPMailer(app.cfg.MailURL, app.cfg.InternalCredential)
	notifier := directory.NewHTTPNotifier(app.cfg.NotificationURL, app.cfg.InternalCredential)

	app.tokenService = &service.TokenService{
		Signer:     jwtx.NewHS256Signer(secret),
		Verifier:   app.verifier(),
		Store:      app.db,
		Users:      users,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}

	app.sessionService = &service.SessionService{Store: app.db}
	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
	}

	app.authService = &service.AuthService{
		Users:    users,
		Mailer:   mailer,
		Notifier: notifier,
		Store:    app.db,
		Tokens:   app.tokenService,
		Sessions: app.sessionService,
		MFA:      app.mfaService,
		Limiter:  app.limiter,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) verifier() *jwtx.HS256Verifier {
	return jwtx.NewHS256Verifier([]byte(app.cfg.SigningSecret), app.cfg.Issuer, time.Minute)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier(),
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.SessionService = app.sessionService
	router.MFAService = app.mfaService
	router.TicketBroker = app.ticketBroker
	router.InternalCredential = app.cfg.InternalCredential
	router.Cookies = httpapi.CookieConfig{
		Domain:      app.cfg.CookieDomain,
		Secure:      app.cfg.CookieSecure,
		SameSite:    http.SameSiteLaxMode,
		RefreshPath: app.cfg.CookieRefreshPath,
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
