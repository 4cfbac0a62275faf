package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ajharbinger/cohort-matchmaker/internal/database"
	"github.com/ajharbinger/cohort-matchmaker/internal/errors"
	"github.com/ajharbinger/cohort-matchmaker/internal/logger"
	"github.com/ajharbinger/cohort-matchmaker/internal/observability"
	"github.com/ajharbinger/cohort-matchmaker/internal/repository"
	"github.com/ajharbinger/cohort-matchmaker/internal/services"
	"github.com/ajharbinger/cohort-matchmaker/pkg/config"
	"github.com/ajharbinger/cohort-matchmaker/pkg/metrics"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	eventID := flag.String("event", "", "generate matches for a single event id")
	pending := flag.Bool("pending", false, "generate matches for every started event not yet matched")
	migrate := flag.Bool("migrate", false, "apply database migrations first")
	limit := flag.Int("limit", 0, "max events per pending sweep, 0 for all")
	flag.Parse()

	if (*eventID == "") == !*pending {
		fmt.Fprintln(os.Stderr, "exactly one of --event or --pending is required")
		flag.Usage()
		return 2
	}

	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Println("Invalid configuration:", err)
		return 1
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		stdlog.Println("Failed to initialize logger:", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "cohort-matchmaker-cli",
		Environment: cfg.Environment,
		Version:     os.Getenv("APP_VERSION"),
	})
	defer shutdownTracing(context.Background())

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", err)
		return 1
	}
	defer db.Close()

	if *migrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Error("Failed to run migrations", err)
			return 1
		}
		log.Info("Migrations applied")
	}

	locker := services.NewMemoryLocker()
	if cfg.HasRedis() {
		rdb, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("Failed to connect to redis", err)
			return 1
		}
		defer rdb.Close()
		locker = services.NewRedisLocker(rdb)
	}

	if *limit > 0 {
		cfg.PendingLimit = *limit
	}
	metricsManager := metrics.NewManager()
	defer func() {
		if err := metricsManager.Push(context.WithoutCancel(ctx), cfg.PushgatewayURL, "match_generator"); err != nil {
			log.Warn("Failed to push metrics", "error", err)
		}
	}()

	generator := services.NewServices(services.Dependencies{
		Repos:   repository.NewRepositories(db.DB),
		Locker:  locker,
		Metrics: metricsManager,
		Logger:  log,
	}, cfg).Generation

	if *eventID != "" {
		stats, err := generator.GenerateForEvent(ctx, *eventID)
		if err != nil {
			log.Error("Match generation failed", err, "event_id", *eventID, "code", errors.CodeOf(err))
			return 1
		}
		fmt.Printf("Generated %d matches for event %s\n", stats.MatchesGenerated, *eventID)
		fmt.Println(stats.Summary())
		return 0
	}

	stats, err := generator.RunPending(ctx)
	if err != nil {
		log.Error("Pending sweep failed", err)
		return 1
	}
	fmt.Println(stats.Summary())
	for _, f := range stats.Failures {
		fmt.Printf("  event %s: %s (%s)\n", f.EventID, f.Error, f.Code)
	}
	if stats.EventsFailed > 0 {
		return 1
	}
	return 0
}
