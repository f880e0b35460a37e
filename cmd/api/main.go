package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexhub/deadline-api/internal/config"
	"github.com/lexhub/deadline-api/internal/handler"
	auditHandler "github.com/lexhub/deadline-api/internal/handler/audit"
	deadlineHandler "github.com/lexhub/deadline-api/internal/handler/deadline"
	notificationHandler "github.com/lexhub/deadline-api/internal/handler/notification"
	preferenceHandler "github.com/lexhub/deadline-api/internal/handler/preference"
	"github.com/lexhub/deadline-api/internal/middleware"
	"github.com/lexhub/deadline-api/internal/repository/postgres"
	"github.com/lexhub/deadline-api/internal/router"
	auditService "github.com/lexhub/deadline-api/internal/service/audit"
	deadlineService "github.com/lexhub/deadline-api/internal/service/deadline"
	notificationService "github.com/lexhub/deadline-api/internal/service/notification"
	preferenceService "github.com/lexhub/deadline-api/internal/service/preference"
	"github.com/lexhub/deadline-api/pkg/logger"
	messagingredis "github.com/lexhub/deadline-api/pkg/messaging/redis"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load config")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := messagingredis.NewRedisBroker(messagingredis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.ZL)
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	caseRepo := postgres.NewCaseRepository(db)
	deadlineRepo := postgres.NewDeadlineRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	preferenceRepo := postgres.NewPreferenceRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	auditor := auditService.NewService(auditRepo)
	deadlineSvc := deadlineService.NewService(deadlineRepo, caseRepo, notificationRepo, auditor, log)
	notificationSvc := notificationService.NewService(notificationRepo, caseRepo, broker, log)
	preferenceSvc := preferenceService.NewService(preferenceRepo)

	auth := middleware.NewAuthMiddleware(cfg.JWT.Secret, log)

	handler.RegisterValidators()

	engine := router.New(
		auth,
		handler.NewHealthHandler(db),
		log,
		router.Config{},
		deadlineHandler.NewHandler(deadlineSvc),
		notificationHandler.NewHandler(notificationSvc),
		preferenceHandler.NewHandler(preferenceSvc),
		auditHandler.NewHandler(auditor),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info("api server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down api server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
}
