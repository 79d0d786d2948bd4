package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flighttrack/config"
	"github.com/Domenick1991/flighttrack/internal/bootstrap"
	"github.com/Domenick1991/flighttrack/internal/cache"
	"github.com/Domenick1991/flighttrack/internal/kafka"
	"github.com/Domenick1991/flighttrack/internal/keylock"
	"github.com/Domenick1991/flighttrack/internal/provider"
	"github.com/Domenick1991/flighttrack/internal/repository"
	"github.com/Domenick1991/flighttrack/internal/service/refresh"
	"github.com/Domenick1991/flighttrack/internal/service/tracking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Refresh.CacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	repo := repository.NewTrackingRepository(pool)
	schedules := provider.NewAviationStackClient(cfg.Providers.AviationStack)
	positions := provider.NewOpenSkyClient(cfg.Providers.OpenSky)
	locks := keylock.New()

	refresher := refresh.NewRefresher(
		repo,
		schedules,
		positions,
		cfg.Refresh.Aircraft,
		producer,
		cfg.Kafka.NotificationsTopic,
		redisCache,
		locks,
		cfg.Refresh.Concurrency,
	)
	trackingSvc := tracking.NewTrackingService(repo, refresher, redisCache)

	if err := bootstrap.Run(ctx, cfg, trackingSvc); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
