// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tipster-service/internal/config"
	"tipster-service/internal/db"
	betslipHandler "tipster-service/internal/handlers/betslip"
	subscriptionHandler "tipster-service/internal/handlers/subscription"
	wsHandler "tipster-service/internal/handlers/websocket"
	"tipster-service/internal/metrics"
	"tipster-service/internal/middleware"
	"tipster-service/internal/pkg/jwt"
	"tipster-service/internal/pkg/ratelimit"
	"tipster-service/internal/repository/postgres"
	"tipster-service/internal/scheduler"
	auditsvc "tipster-service/internal/service/audit"
	betslipsvc "tipster-service/internal/service/betslip"
	notifysvc "tipster-service/internal/service/notification"
	subscriptionsvc "tipster-service/internal/service/subscription"
	"tipster-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger

	httpServer *http.Server
	pool       *pgxpool.Pool
	redis      *redis.Client
	recorder   *auditsvc.Recorder
	scheduler  *scheduler.ExpiryScheduler
	stopHub    context.CancelFunc
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start wires every dependency and serves HTTP until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{URL: s.cfg.DatabaseURL, MaxConns: s.cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	s.logger.Info("connected to PostgreSQL")

	if s.cfg.RunMigrations {
		if err := db.Migrate(pool); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		return err
	}
	s.redis = redisClient
	s.logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- Metrics -----
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNew(registry)

	// ----- JWT -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT keys: %w", err)
	}

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	subscriptionRepo := postgres.NewSubscriptionRepository(dbWrapper)
	betslipRepo := postgres.NewBetslipRepository(dbWrapper)
	packageRepo := postgres.NewPackageRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(verifier, s.logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Services -----
	s.recorder = auditsvc.NewRecorder(auditRepo, s.cfg.AuditBuffer, s.logger, m)
	notifier := notifysvc.NewNotificationService(hub, s.logger)
	lifecycle := subscriptionsvc.NewLifecycleService(subscriptionRepo, packageRepo, s.recorder, notifier, m, s.logger)
	settlement := betslipsvc.NewSettlementService(betslipRepo, lifecycle, s.recorder, notifier, m, s.logger)

	if s.cfg.SweepEnabled {
		s.scheduler = scheduler.NewExpiryScheduler(lifecycle, scheduler.NewRedisLock(redisClient),
			s.cfg.SweepInterval, s.cfg.SweepLockTTL, s.logger)
		s.scheduler.Start(ctx)
	}

	// ----- HTTP -----
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger, m),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	limiter := ratelimit.NewLimiter(redisClient, s.cfg.RateLimit, s.cfg.RateLimitWindow)
	SetupRouter(engine, &Handlers{
		SubscriptionHandler: subscriptionHandler.NewSubscriptionHandler(lifecycle, s.recorder),
		BetslipHandler:      betslipHandler.NewBetslipHandler(settlement),
		WSHandler:           wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, s.logger),
		AuthMiddleware:      middleware.NewAuthMiddleware(verifier),
		RateLimit:           middleware.RateLimitMiddleware(limiter, s.logger),
		Metrics:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	s.httpServer = &http.Server{Addr: s.cfg.HTTPAddr, Handler: engine}
	s.logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then drains background work in
// dependency order.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.recorder != nil {
		if err := s.recorder.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("audit drain: %w", err))
		}
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}

	return errors.Join(errs...)
}
