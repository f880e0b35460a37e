package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexhub/deadline-api/internal/channel"
	"github.com/lexhub/deadline-api/internal/config"
	"github.com/lexhub/deadline-api/internal/dispatch"
	"github.com/lexhub/deadline-api/internal/repository/postgres"
	notificationService "github.com/lexhub/deadline-api/internal/service/notification"
	preferenceService "github.com/lexhub/deadline-api/internal/service/preference"
	"github.com/lexhub/deadline-api/internal/worker"
	"github.com/lexhub/deadline-api/pkg/logger"
	messagingredis "github.com/lexhub/deadline-api/pkg/messaging/redis"
	"github.com/lexhub/deadline-api/pkg/metrics"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load config")
	}
	secrets, err := config.LoadChannelSecrets()
	if err != nil {
		log.Fatal(err, "failed to load channel secrets")
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

	m := metrics.New("deadline_worker")

	tenantRepo := postgres.NewTenantRepository(db)
	caseRepo := postgres.NewCaseRepository(db)
	deadlineRepo := postgres.NewDeadlineRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	preferenceRepo := postgres.NewPreferenceRepository(db)

	notifier := notificationService.NewService(notificationRepo, caseRepo, broker, log)
	prefs := preferenceService.NewService(preferenceRepo)

	adapters := []channel.Adapter{
		channel.NewEmailAdapter(channel.EmailConfig{
			Host:     secrets.SMTPHost,
			Port:     secrets.SMTPPort,
			Username: secrets.SMTPUser,
			Password: secrets.SMTPPassword,
			From:     secrets.SMTPFrom,
		}),
		channel.NewPushAdapter(channel.PushConfig{
			APIURL: secrets.PushAPIURL,
			APIKey: secrets.PushAPIKey,
		}),
		channel.NewSMSAdapter(channel.SMSConfig{
			APIURL:     secrets.SMSAPIURL,
			APIKey:     secrets.SMSAPIKey,
			From:       secrets.SMSFrom,
			RatePerSec: secrets.SMSPerSec,
		}),
	}

	engine := dispatch.NewEngine(
		notificationRepo,
		deadlineRepo,
		prefs,
		adapters,
		broker,
		dispatch.Config{
			BatchSize:      cfg.Dispatch.BatchSize,
			MaxAttempts:    cfg.Dispatch.MaxAttempts,
			ChannelTimeout: cfg.Dispatch.ChannelTimeout,
			RetryBackoff:   cfg.Dispatch.RetryBackoff,
		},
		log,
		m,
	)

	scanner := worker.NewScanner(tenantRepo, deadlineRepo, caseRepo, notifier, log, m, cfg.Scheduler.ScanHorizon)

	w := worker.New(scanner, engine, worker.Config{
		ScanCron:      cfg.Scheduler.ScanCron,
		SweepInterval: cfg.Scheduler.SweepInterval,
	}, log)

	if err := w.Start(); err != nil {
		log.Fatal(err, "failed to start worker")
	}

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()
	events := worker.NewEventConsumer(broker, notifier, log)
	if err := events.Start(consumerCtx); err != nil {
		log.Fatal(err, "failed to subscribe to case events")
	}

	// Health and metrics endpoint for the worker process.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil && err != http.ErrServerClosed {
			log.Error(err, "worker health server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker")
	w.Stop()
}
