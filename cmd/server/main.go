package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/api"
	"github.com/ajharbinger/cohort-matchmaker/internal/auth"
	"github.com/ajharbinger/cohort-matchmaker/internal/database"
	"github.com/ajharbinger/cohort-matchmaker/internal/logger"
	"github.com/ajharbinger/cohort-matchmaker/internal/middleware"
	"github.com/ajharbinger/cohort-matchmaker/internal/observability"
	"github.com/ajharbinger/cohort-matchmaker/internal/repository"
	"github.com/ajharbinger/cohort-matchmaker/internal/services"
	"github.com/ajharbinger/cohort-matchmaker/pkg/config"
	"github.com/ajharbinger/cohort-matchmaker/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal("Invalid configuration: ", err)
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		stdlog.Fatal("Failed to initialize logger: ", err)
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "cohort-matchmaker",
		Environment: cfg.Environment,
		Version:     os.Getenv("APP_VERSION"),
	})
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations", err)
	}

	locker := services.NewMemoryLocker()
	if cfg.HasRedis() {
		rdb, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to redis", err)
		}
		defer rdb.Close()
		locker = services.NewRedisLocker(rdb)
		log.Info("Using redis run lock")
	}

	metricsManager := metrics.NewManager()
	svc := services.NewServices(services.Dependencies{
		Repos:   repository.NewRepositories(db.DB),
		Locker:  locker,
		Metrics: metricsManager,
		Logger:  log,
	}, cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		log.Fatal("Invalid trusted proxies", err)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log, metricsManager))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))
	if cfg.EnableRateLimit {
		r.Use(middleware.NewRateLimiter(100, time.Minute).Middleware())
	}

	api.SetupRoutes(r, api.RouterDeps{
		Services: svc,
		JWT:      auth.NewJWTService(cfg.JWTSecret),
		Metrics:  metricsManager,
		DB:       db,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", err)
	}
}
