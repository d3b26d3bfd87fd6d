package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/minutier-app/minutier/internal/app"
	"github.com/minutier-app/minutier/internal/audit"
	audithttp "github.com/minutier-app/minutier/internal/audit/http"
	"github.com/minutier-app/minutier/internal/auth"
	jobmetrics "github.com/minutier-app/minutier/internal/jobs"
	"github.com/minutier-app/minutier/internal/observability"
	"github.com/minutier-app/minutier/internal/platform/cache"
	"github.com/minutier-app/minutier/internal/platform/db"
	"github.com/minutier-app/minutier/internal/rbac"
	rbachttp "github.com/minutier-app/minutier/internal/rbac/http"
	"github.com/minutier-app/minutier/internal/shared"
	"github.com/minutier-app/minutier/internal/users"
	"github.com/minutier-app/minutier/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "minutier_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	authService := auth.NewService(usersRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	trail := audit.NewLog()
	store := rbac.NewStore()
	metrics := observability.NewMetrics()

	rbacService := rbac.NewService(store, trail, logger)
	guard := rbac.Middleware{Service: rbacService, Logger: logger, Metrics: metrics}

	rbacHandler := rbachttp.NewHandler(logger, rbacService, usersService, guard)
	usersHandler := users.NewHandler(logger, usersService, guard)
	auditHandler := audithttp.NewHandler(logger, trail, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger, jobs.QueueLocal)

	// Archive runs embedded in this process so it can drain the
	// in-memory trail that the RBAC service writes to.
	archiver := audit.NewArchiver(dbpool)
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	archiveJob := jobs.NewAuditArchiveJob(trail, archiver, logger, jobMetrics, cfg.AuditArchiveAfter)

	archiveTask, err := jobs.NewAuditArchiveTask(jobs.AuditArchivePayload{})
	if err != nil {
		logger.Error("build archive task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditArchive, Handler: archiveJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: archiveTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(jobs.QueueLocal)}},
		},
		Queues: map[string]int{jobs.QueueLocal: 1},
	})
	if err != nil {
		logger.Error("init embedded worker", slog.Any("error", err))
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		RBACHandler:    rbacHandler,
		UsersHandler:   usersHandler,
		AuditHandler:   auditHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		if err := worker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("embedded worker", slog.Any("error", err))
			stop()
		}
	}()

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
