// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"alert-notifier/internal/channels"
	"alert-notifier/internal/common/aws"
	"alert-notifier/internal/common/config"
	"alert-notifier/internal/common/database"
	httpclient "alert-notifier/internal/common/http"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/common/observability"
	"alert-notifier/internal/dispatch"
	"alert-notifier/internal/repository"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification worker...")

	obs := observability.New("notification-worker")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry (asynq opens its own connections, this is a
	// fail-fast check that the broker is reachable before workers start) ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Repositories ---
	alerts := repository.NewAlerts(pg.DB)
	profiles := repository.NewProfiles(pg.DB)
	notifications := repository.NewNotifications(pg.DB)

	// --- Queue client (for fan-out scheduling and dispatcher re-enqueues) ---
	queue := dispatch.NewQueueClient(dispatch.RedisClientOpt(cfg.Database.Redis), cfg.Queue.Name)
	defer queue.Close()

	// --- Channel strategies ---
	webhook := channels.NewWebhook(
		cfg.Notifications.WebhookURL,
		httpclient.NewClient(cfg.Notifications.WebhookTimeout),
		notifications,
		log,
	)

	var sesClient *aws.SESClient
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
	}
	email := channels.NewEmail(sesClient, notifications, cfg.Integrations.AWS.SES.Enabled, log)

	var snsClient *aws.SNSClient
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
	}
	sms := channels.NewSMS(snsClient, notifications, cfg.Integrations.AWS.SNS.Enabled, log)

	registry := channels.NewRegistry(webhook, email, sms)

	// --- Pipeline ---
	fanOut := dispatch.NewFanOut(alerts, profiles, notifications, queue, log)
	policy := dispatch.RetryPolicy{
		MaxAttempts: cfg.Notifications.MaxAttempts,
		Delay:       cfg.Notifications.RetryDelay,
	}
	dispatcher := dispatch.NewDispatcher(notifications, registry, queue, policy, log)

	mux := dispatch.NewServeMux(fanOut, dispatcher, obs, log)

	server := asynq.NewServer(
		dispatch.RedisClientOpt(cfg.Database.Redis),
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues:      map[string]int{cfg.Queue.Name: 1},
		},
	)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8081")
		if err := http.ListenAndServe(":8081", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := server.Run(mux); err != nil {
			zapLog.Fatal("task server failed", zap.Error(err))
		}
	}()
	zapLog.Info("Task server started",
		zap.String("queue", cfg.Queue.Name),
		zap.Int("concurrency", cfg.Queue.Concurrency),
	)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	server.Shutdown()

	zapLog.Info("Notification worker stopped gracefully")
}
