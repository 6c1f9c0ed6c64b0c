package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carepoint/trackboard/internal/config"
	"github.com/carepoint/trackboard/internal/domain/trackboard"
	"github.com/carepoint/trackboard/internal/platform/auth"
	"github.com/carepoint/trackboard/internal/platform/clock"
	"github.com/carepoint/trackboard/internal/platform/db"
	"github.com/carepoint/trackboard/internal/platform/feed"
	"github.com/carepoint/trackboard/internal/platform/middleware"
	"github.com/carepoint/trackboard/internal/platform/notification"
	"github.com/carepoint/trackboard/internal/platform/websocket"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the tracking board API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// app holds every long-lived component of the server.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	clock  clock.Clock

	echo       *echo.Echo
	pool       *pgxpool.Pool
	memory     *trackboard.MemoryRepo
	service    *trackboard.Service
	refresher  *trackboard.Refresher
	hub        *websocket.Hub
	notifier   *notification.Manager
	subscriber *feed.Subscriber
}

// loadRepository opens the configured patient store.
func loadRepository(ctx context.Context, cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (trackboard.PatientRepository, *trackboard.MemoryRepo, *pgxpool.Pool, error) {
	if cfg.Store == config.StorePostgres {
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		}, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return trackboard.NewPatientRepoPG(pool), nil, pool, nil
	}

	records, err := trackboard.LoadSeedFile(cfg.SeedFile, clk.Now())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load seed: %w", err)
	}
	logger.Info().Int("patients", len(records)).Str("seed_file", cfg.SeedFile).Msg("loaded in-memory board")
	mem := trackboard.NewMemoryRepo(records)
	return mem, mem, nil, nil
}

func newNotifier(cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (*notification.Manager, error) {
	if !cfg.SMSEnabled() {
		sender := notification.LogSender{Logger: logger}
		return notification.NewManager(sender, sender, nil, clk, logger), nil
	}
	client, err := notification.NewProviderClient(cfg.SMSProviderURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFromNumber, nil)
	if err != nil {
		return nil, err
	}
	return notification.NewManager(client, client, nil, clk, logger), nil
}

func newApp(ctx context.Context, cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (*app, error) {
	if clk == nil {
		clk = clock.New()
	}
	a := &app{cfg: cfg, logger: logger, clock: clk}

	repo, mem, pool, err := loadRepository(ctx, cfg, clk, logger)
	if err != nil {
		return nil, err
	}
	a.pool, a.memory = pool, mem

	a.notifier, err = newNotifier(cfg, clk, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	a.service = trackboard.NewService(repo, clk, logger)
	a.hub = websocket.NewHub(logger)
	a.refresher = trackboard.NewRefresher(a.service, cfg.RefreshInterval, logger)
	a.refresher.SetPublisher(a.hub)
	if len(cfg.AlertSMSTo) > 0 {
		a.refresher.SetWatcher(trackboard.NewSLAWatcher(a.notifier, cfg.AlertSMSTo, logger))
	}

	if cfg.FeedEnabled() {
		if mem == nil {
			logger.Warn().Msg("MQTT feed ignored: snapshots only replace the in-memory store")
		} else {
			ingester := trackboard.NewSnapshotIngester(mem, a.refresher, logger)
			a.subscriber, err = feed.NewSubscriber(feed.Config{
				BrokerURL: cfg.MQTTBrokerURL,
				ClientID:  cfg.MQTTClientID,
				Topic:     cfg.MQTTTopic,
				Username:  cfg.MQTTUsername,
				Password:  cfg.MQTTPassword,
				QoS:       cfg.MQTTQoS,
			}, ingester.Ingest, logger)
			if err != nil {
				a.close()
				return nil, err
			}
		}
	}

	a.echo = a.routes()
	return a, nil
}

func (a *app) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.Logger(a.logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", a.health)
	if a.pool != nil {
		e.GET("/health/db", db.HealthHandler(a.pool))
	}

	apiV1 := e.Group("/api/v1")
	if a.cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(a.jwtConfig()))
	}

	trackboard.NewHandler(a.service).RegisterRoutes(apiV1)

	notifyGroup := apiV1.Group("", auth.RequireRole(auth.RolePhysician, auth.RoleNurse))
	notification.NewHandler(a.notifier).RegisterRoutes(notifyGroup)

	websocket.NewHandler(a.hub, a.cfg.CORSOrigins).RegisterRoutes(apiV1)
	return e
}

func (a *app) jwtConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Issuer:     a.cfg.AuthIssuer,
		Audience:   a.cfg.AuthAudience,
		SigningKey: []byte(a.cfg.AuthSigningKey),
	}
}

type healthResponse struct {
	Status      string      `json:"status"`
	Store       string      `json:"store"`
	LastRefresh *time.Time  `json:"last_refresh,omitempty"`
	WSClients   int         `json:"ws_clients"`
	Feed        *feed.Stats `json:"feed,omitempty"`
}

func (a *app) health(c echo.Context) error {
	resp := healthResponse{
		Status:    "ok",
		Store:     a.cfg.Store,
		WSClients: a.hub.ClientCount(),
	}
	if last := a.refresher.LastUpdate(); !last.IsZero() {
		resp.LastRefresh = &last
	}
	if a.subscriber != nil {
		st := a.subscriber.Stats()
		resp.Feed = &st
	}
	return c.JSON(http.StatusOK, resp)
}

// run starts background workers and the HTTP server and blocks until ctx is
// cancelled, then shuts everything down.
func (a *app) run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	go a.refresher.Run(workerCtx)

	if a.subscriber != nil {
		if err := a.subscriber.Start(workerCtx); err != nil {
			a.logger.Error().Err(err).Msg("snapshot feed unavailable")
		} else {
			defer a.subscriber.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.logger.Info().Str("addr", addr).Str("store", a.cfg.Store).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.logger.Info().Msg("server stopped")
	return nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		bl := bootstrapLogger()
		bl.Error().Err(err).Msg("invalid configuration")
		return err
	}

	logger, logCloser := newLogger(cfg, os.Stdout)
	defer logCloser.Close()

	if cfg.IsDev() {
		logger.Warn().Msg("ENV=development: authentication is disabled and every request is treated as admin")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}
	defer a.close()

	return a.run(ctx)
}
