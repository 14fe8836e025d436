package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/surveyhub/surveyhub/internal/analytics"
	"github.com/surveyhub/surveyhub/internal/app"
	jobmetrics "github.com/surveyhub/surveyhub/internal/jobs"
	"github.com/surveyhub/surveyhub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	analyticsService := analytics.NewService(analytics.MockSource{}, analytics.NewCache(redisClient, cfg.AnalyticsTTL))
	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)

	mailJob := &jobs.MailJob{
		Sender:  jobs.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
		Logger:  logger,
		Metrics: metrics,
	}
	submissionJob := &jobs.SubmissionJob{
		Endpoint:  cfg.SubmissionEndpoint,
		Client:    &http.Client{Timeout: 10 * time.Second},
		Analytics: analyticsService,
		Logger:    logger,
		Metrics:   metrics,
	}
	refreshJob := &jobs.AnalyticsRefreshJob{Analytics: analyticsService, Metrics: metrics}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Mail:        mailJob,
		Submissions: submissionJob,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeAnalyticsRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: jobs.NewAnalyticsRefreshTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
