package main

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Domenick1991/flighttrack/config"
	"github.com/Domenick1991/flighttrack/internal/cache"
	"github.com/Domenick1991/flighttrack/internal/kafka"
	"github.com/Domenick1991/flighttrack/internal/keylock"
	"github.com/Domenick1991/flighttrack/internal/notify"
	"github.com/Domenick1991/flighttrack/internal/provider"
	"github.com/Domenick1991/flighttrack/internal/repository"
	"github.com/Domenick1991/flighttrack/internal/service/refresh"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
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

	refresher := refresh.NewRefresher(
		repo,
		schedules,
		positions,
		cfg.Refresh.Aircraft,
		producer,
		cfg.Kafka.NotificationsTopic,
		redisCache,
		keylock.New(),
		cfg.Refresh.Concurrency,
		refresh.WithConnectivityChecker(refresh.NewTCPChecker(probeAddr(cfg.Providers.AviationStack.BaseURL))),
		refresh.WithSeedDemo(cfg.Refresh.SeedDemo),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()
	printer := notify.NewPrinter()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.StatusChangeMessage
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode event error: %v", err)
				return nil
			}
			return printer.Notify(ctx, event)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	interval := time.Duration(cfg.Refresh.IntervalMinutes) * time.Minute
	backoffBase := time.Duration(cfg.Refresh.BackoffBaseSeconds) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runPass(ctx, refresher, backoffBase, cfg.Refresh.MaxRetries)

	for {
		select {
		case <-ticker.C:
			runPass(ctx, refresher, backoffBase, cfg.Refresh.MaxRetries)
		case <-ctx.Done():
			log.Printf("shutting down")
			return
		}
	}
}

// runPass executes one refresh pass, re-running with linear backoff
// while the outcome stays Retry.
func runPass(ctx context.Context, refresher *refresh.Refresher, backoffBase time.Duration, maxRetries int) {
	for attempt := 0; ; attempt++ {
		report, err := refresher.Run(ctx)
		if err != nil {
			if err == refresh.ErrPassInProgress {
				log.Printf("refresh trigger dropped: pass already running")
				return
			}
			log.Printf("refresh %s failed (%s): %v", report.RunID, report.Outcome, err)
			return
		}

		log.Printf("refresh %s: %s (refreshed=%d skipped=%d fallback=%d failed=%d of %d)",
			report.RunID, report.Outcome, report.Refreshed, report.Skipped, report.Fallback, report.Failed, report.Total)

		if report.Outcome != refresh.OutcomeRetry || attempt >= maxRetries {
			return
		}

		delay := time.Duration(attempt+1) * backoffBase
		log.Printf("refresh %s: retrying in %s (attempt %d/%d)", report.RunID, delay, attempt+1, maxRetries)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

// probeAddr derives the connectivity probe target from the schedule
// provider's base URL.
func probeAddr(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "api.aviationstack.com:443"
	}
	host := u.Host
	if !strings.Contains(host, ":") {
		host += ":443"
	}
	return host
}
