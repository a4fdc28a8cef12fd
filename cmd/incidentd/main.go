// Command incidentd runs the incident management API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mesadeayuda/incident-system/internal/api"
	"github.com/mesadeayuda/incident-system/internal/core/service"
	mongodb "github.com/mesadeayuda/incident-system/internal/infrastructure/db/mongo"
	redisdb "github.com/mesadeayuda/incident-system/internal/infrastructure/db/redis"
	"github.com/mesadeayuda/incident-system/internal/pkg/config"
	"github.com/mesadeayuda/incident-system/internal/realtime"
	"github.com/mesadeayuda/incident-system/internal/scheduler"
	"github.com/mesadeayuda/incident-system/internal/storage"
	"github.com/mesadeayuda/incident-system/pkg/logger"
)

// @title           Incident Management API
// @version         1.0
// @description     Incident ticketing service with role-based access, realtime notifications and auditing.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.Production()})
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongodb index creation failed")
	}

	// Redis only backs the login throttle, which fails open, so a Redis
	// outage must not keep the service from starting.
	redisClient, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login throttle disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}
	throttle := redisdb.NewLoginThrottle(redisClient, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow, logger.Component("throttle"))

	attachments, err := storage.NewAttachmentStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("attachment store init failed")
	}

	userRepo := mongodb.NewUserRepository(db)
	incidentRepo := mongodb.NewIncidentRepository(db)
	areaRepo := mongodb.NewAreaRepository(db)
	notificationRepo := mongodb.NewNotificationRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	hub := realtime.NewHub(logger.Component("realtime"))
	timers := scheduler.NewTimerScheduler(logger.Component("scheduler"))
	defer timers.Stop()

	auditService := service.NewAuditService(auditRepo, logger.Component("audit"))
	notificationService := service.NewNotificationService(notificationRepo, userRepo, hub, logger.Component("notifications"))
	authService := service.NewAuthService(userRepo, auditService, notificationService, cfg.JWTSecret, cfg.JWTTTL, cfg.Auth.BcryptCost)
	incidentService := service.NewIncidentService(
		incidentRepo, areaRepo, userRepo,
		auditService, notificationService, timers,
		cfg.AutoCloseAfter, logger.Component("incidents"),
	)
	areaService := service.NewAreaService(areaRepo, incidentRepo, auditService, notificationService, logger.Component("areas"))
	userService := service.NewUserService(userRepo, notificationRepo, auditService, notificationService, logger.Component("users"))

	// The sweep is the durable backstop for auto-close timers lost to a
	// restart.
	sweep, err := scheduler.NewSweep(cfg.SweepSchedule, func(ctx context.Context) {
		if n, err := incidentService.CloseOverdue(ctx); err != nil {
			log.Error().Err(err).Msg("overdue incident sweep failed")
		} else if n > 0 {
			log.Info().Int("closed", n).Msg("overdue incidents auto-closed")
		}
	}, logger.Component("sweep"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid sweep schedule")
	}
	sweep.Start()
	defer sweep.Stop()

	e := api.NewRouter(api.Deps{
		Auth:           authService,
		Users:          userService,
		Incidents:      incidentService,
		Areas:          areaService,
		Notifications:  notificationService,
		Audit:          auditService,
		Throttle:       throttle,
		Attachments:    attachments,
		Hub:            hub,
		Mongo:          db,
		Redis:          redisClient,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimit:      cfg.HTTP.RateLimit,
		RateBurst:      cfg.HTTP.RateBurst,
		Log:            logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
