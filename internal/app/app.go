// Package app is the composition root. It constructs every client once,
// injects them into the features and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapshift/internal/core/cache"
	"zapshift/internal/core/config"
	"zapshift/internal/core/database"
	"zapshift/internal/core/events"
	"zapshift/internal/core/httpclient"
	"zapshift/internal/core/logger"
	"zapshift/internal/core/metrics"
	"zapshift/internal/core/server"
	authadapters "zapshift/internal/features/auth/adapters"
	"zapshift/internal/features/auth/middleware"
	authports "zapshift/internal/features/auth/ports"
	parceladapters "zapshift/internal/features/parcels/adapters"
	parcelhandler "zapshift/internal/features/parcels/handler"
	parcelservice "zapshift/internal/features/parcels/service"
	paymentadapters "zapshift/internal/features/payments/adapters"
	paymenthandler "zapshift/internal/features/payments/handler"
	paymentservice "zapshift/internal/features/payments/service"
	rideradapters "zapshift/internal/features/riders/adapters"
	riderhandler "zapshift/internal/features/riders/handler"
	riderservice "zapshift/internal/features/riders/service"
	trackingadapters "zapshift/internal/features/tracking/adapters"
	trackinghandler "zapshift/internal/features/tracking/handler"
	trackingservice "zapshift/internal/features/tracking/service"
	useradapters "zapshift/internal/features/users/adapters"
	userhandler "zapshift/internal/features/users/handler"
	userservice "zapshift/internal/features/users/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cachePrefix = "zapshift:"

// Deps are the external clients the application runs on.
type Deps struct {
	DB        *gorm.DB
	Cache     cache.Cache
	Publisher events.Publisher
	Verifier  authports.IdentityVerifier
}

// App is a fully wired API server.
type App struct {
	Server  *server.Server
	Metrics *metrics.Metrics
	deps    Deps
}

// Connect opens the store, cache, event publisher and identity verifier
// described by cfg. Clients opened before a failure are closed.
func Connect(ctx context.Context, cfg *config.AppConfig) (Deps, error) {
	var deps Deps

	db, err := database.Open(cfg.Database)
	if err != nil {
		return deps, err
	}
	deps.DB = db

	c, err := cache.NewRedisAdapter(cfg.Redis.URL, cachePrefix)
	if err != nil {
		closeDeps(deps)
		return Deps{}, fmt.Errorf("failed to connect to redis: %w", err)
	}
	deps.Cache = c

	deps.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := events.NewSaramaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			closeDeps(deps)
			return Deps{}, err
		}
		deps.Publisher = pub
	}

	verifier, err := newVerifier(ctx, cfg.Auth)
	if err != nil {
		closeDeps(deps)
		return Deps{}, err
	}
	deps.Verifier = verifier

	return deps, nil
}

func newVerifier(ctx context.Context, cfg config.AuthConfig) (authports.IdentityVerifier, error) {
	if cfg.JWTSecret != "" {
		return authadapters.NewHMACVerifier(cfg.JWTSecret), nil
	}
	key, err := authadapters.FetchPublicKey(ctx, httpclient.NewClient("identity", 10*time.Second), cfg.PublicKeyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity public key: %w", err)
	}
	return authadapters.NewRSAVerifier(key), nil
}

// New wires every feature on deps and mounts its routes.
func New(cfg *config.AppConfig, deps Deps) *App {
	m := metrics.New()
	srv := server.New(cfg, m)
	tx := database.NewTransactor(deps.DB)

	users := useradapters.NewGormUserRepository(deps.DB)
	riders := rideradapters.NewGormRiderRepository(deps.DB)
	parcels := parceladapters.NewGormParcelRepository(deps.DB)
	payments := paymentadapters.NewGormPaymentRepository(deps.DB)
	logs := trackingadapters.NewGormLogRepository(deps.DB)
	timelines := trackingadapters.NewRedisTimelineCache(deps.Cache, cfg.Redis.TrackingTTL)

	trackingSvc := trackingservice.NewTrackingService(logs, timelines, tx, deps.Publisher, m)
	userSvc := userservice.NewUserService(users)
	riderSvc := riderservice.NewRiderService(riders, userSvc, tx)
	parcelSvc := parcelservice.NewParcelService(parcels, riders, trackingSvc, tx, m)
	paymentSvc := paymentservice.NewPaymentService(
		paymentadapters.NewStripeAdapter(cfg.Stripe),
		payments,
		parcels,
		trackingSvc,
		tx,
		m,
		paymentservice.Options{Currency: cfg.Stripe.Currency, SiteDomain: cfg.Stripe.SiteDomain},
	)

	gate := middleware.NewGate(deps.Verifier, userSvc)

	a := &App{Server: srv, Metrics: m, deps: deps}
	srv.App.Get("/health", a.health)

	trackinghandler.NewTrackingHandler(trackingSvc).Register(srv.App)
	userhandler.NewUserHandler(userSvc).Register(srv.App, gate)
	riderhandler.NewRiderHandler(riderSvc).Register(srv.App, gate)
	parcelhandler.NewParcelHandler(parcelSvc, userSvc).Register(srv.App, gate)
	paymenthandler.NewPaymentHandler(paymentSvc, userSvc).Register(srv.App, gate)

	return a
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

func (a *App) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Cache: "ok"}
	status := fiber.StatusOK
	if err := database.Ping(ctx, a.deps.DB); err != nil {
		logger.Get().Warn("Database health check failed", zap.Error(err))
		resp.Status, resp.Database, status = "degraded", "unreachable", fiber.StatusServiceUnavailable
	}
	if err := a.deps.Cache.Ping(ctx); err != nil {
		logger.Get().Warn("Cache health check failed", zap.Error(err))
		resp.Status, resp.Cache, status = "degraded", "unreachable", fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

// Close releases every client. It is safe to call after Server.Shutdown.
func (a *App) Close() error {
	return closeDeps(a.deps)
}

func closeDeps(deps Deps) error {
	var errs []error
	if deps.Publisher != nil {
		errs = append(errs, deps.Publisher.Close())
	}
	if deps.Cache != nil {
		errs = append(errs, deps.Cache.Close())
	}
	if deps.DB != nil {
		errs = append(errs, database.Close(deps.DB))
	}
	return errors.Join(errs...)
}
