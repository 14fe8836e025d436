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
	"golang.org/x/sync/errgroup"

	"github.com/surveyhub/surveyhub/internal/analytics"
	analytichttp "github.com/surveyhub/surveyhub/internal/analytics/http"
	"github.com/surveyhub/surveyhub/internal/analytics/ui"
	"github.com/surveyhub/surveyhub/internal/app"
	"github.com/surveyhub/surveyhub/internal/auth"
	"github.com/surveyhub/surveyhub/internal/authstate"
	"github.com/surveyhub/surveyhub/internal/contact"
	"github.com/surveyhub/surveyhub/internal/observability"
	"github.com/surveyhub/surveyhub/internal/platform/cache"
	"github.com/surveyhub/surveyhub/internal/platform/db"
	"github.com/surveyhub/surveyhub/internal/profiles"
	"github.com/surveyhub/surveyhub/internal/rbac"
	"github.com/surveyhub/surveyhub/internal/shared"
	"github.com/surveyhub/surveyhub/internal/survey"
	"github.com/surveyhub/surveyhub/internal/view"
	"github.com/surveyhub/surveyhub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "surveyhub_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = inspector.Close() }()

	profileService := profiles.NewService(profiles.NewRepository(dbpool))
	notifier := auth.NewNotifier(redisClient, logger)
	authService := auth.NewService(auth.ServiceConfig{
		Repo:     auth.NewRepository(dbpool),
		Sessions: auth.NewSessionStore(redisClient),
		Tokens:   auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL),
		Notifier: notifier,
		Mailer:   queue,
		Audit:    shared.NewAuditLogger(dbpool),
		Logger:   logger,
	})

	registry := authstate.NewRegistry(authService, profileService, cfg.AuthStateIdleTTL, logger)
	defer registry.Close()
	metrics.TrackSessionStores(registry.Len)
	viewer := authstate.ViewerFromContext

	catalog, err := survey.DefaultCatalog()
	if err != nil {
		logger.Error("load survey catalog", slog.Any("error", err))
		os.Exit(1)
	}

	analyticsService := analytics.NewService(analytics.MockSource{}, analytics.NewCache(redisClient, cfg.AnalyticsTTL))

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthState:      registry,
		AuthHandler:    auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, cfg.AppPublicURL, viewer),
		StateHandler:   authstate.NewHandler(),
		SurveyHandler: survey.NewHandler(survey.HandlerConfig{
			Logger:    logger,
			Catalog:   catalog,
			States:    survey.NewStateStore(redisClient, cfg.DraftTTL),
			Templates: templates,
			CSRF:      csrfManager,
			Viewer:    viewer,
			Reporter:  queue,
			Observer:  metrics,
		}),
		AnalyticsHandler: analytichttp.NewHandler(logger, analyticsService, templates, ui.Renderers{}, viewer),
		ContactHandler:   contact.NewHandler(logger, queue, templates, csrfManager, cfg.SupportEmail, viewer),
		ProfilesHandler:  profiles.NewHandler(logger, profileService, templates, csrfManager, viewer),
		JobHandler:       jobs.NewHandler(inspector, logger),
		RBACMiddleware:   rbac.Middleware{Templates: templates, Logger: logger},
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return notifier.Run(gctx) })
	g.Go(func() error { return registry.Run(gctx) })
	g.Go(func() error {
		logger.Info("http server starting", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("http server shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
