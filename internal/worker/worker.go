package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lexhub/deadline-api/internal/dispatch"
	"github.com/lexhub/deadline-api/pkg/logger"
)

type Config struct {
	ScanCron      string
	SweepInterval time.Duration
}

// Worker owns the two background loops: the cron-scheduled daily scan
// and the ticker-driven dispatch sweep. Start returns immediately;
// Stop blocks until in-flight passes finish.
type Worker struct {
	scanner *Scanner
	engine  *dispatch.Engine
	config  Config
	logger  *logger.Logger

	cron   *cron.Cron
	cancel context.CancelFunc
	done   chan struct{}
}

func New(scanner *Scanner, engine *dispatch.Engine, config Config, logger *logger.Logger) *Worker {
	if config.ScanCron == "" {
		config.ScanCron = "0 8 * * *"
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = time.Minute
	}
	return &Worker{
		scanner: scanner,
		engine:  engine,
		config:  config,
		logger:  logger,
		cron:    cron.New(),
		done:    make(chan struct{}),
	}
}

func (w *Worker) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	_, err := w.cron.AddFunc(w.config.ScanCron, func() {
		if err := w.scanner.Run(ctx); err != nil {
			w.logger.Error(err, "deadline scan failed")
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("invalid scan schedule %q: %w", w.config.ScanCron, err)
	}
	w.cron.Start()

	go w.sweepLoop(ctx)

	w.logger.Info("worker started",
		"scan_cron", w.config.ScanCron,
		"sweep_interval", w.config.SweepInterval.String(),
	)
	return nil
}

func (w *Worker) sweepLoop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.engine.Sweep(ctx); err != nil {
				w.logger.Error(err, "dispatch sweep failed")
			}
		}
	}
}

// Stop halts the cron scheduler and the sweep loop, waiting for any
// running cron job to complete.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	cronCtx := w.cron.Stop()
	<-cronCtx.Done()
	<-w.done
	w.logger.Info("worker stopped")
}
