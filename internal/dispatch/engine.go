package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexhub/deadline-api/internal/channel"
	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/repository"
	"github.com/lexhub/deadline-api/internal/service/notification"
	"github.com/lexhub/deadline-api/internal/service/preference"
	"github.com/lexhub/deadline-api/pkg/logger"
	"github.com/lexhub/deadline-api/pkg/messaging"
	"github.com/lexhub/deadline-api/pkg/metrics"
)

const maxBackoff = 6 * time.Hour

type Config struct {
	BatchSize      int
	MaxAttempts    int
	ChannelTimeout time.Duration
	RetryBackoff   time.Duration
}

// Engine claims pending notifications and attempts delivery through
// the channel adapters. Multiple engine instances may sweep the same
// tenant concurrently: ownership of a row is taken with an atomic
// conditional update, never an in-process lock.
type Engine struct {
	notifRepo    repository.NotificationRepository
	deadlineRepo repository.DeadlineRepository
	prefs        *preference.Service
	adapters     map[model.NotificationChannel]channel.Adapter
	broker       messaging.Broker
	config       Config
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewEngine(
	notifRepo repository.NotificationRepository,
	deadlineRepo repository.DeadlineRepository,
	prefs *preference.Service,
	adapters []channel.Adapter,
	broker messaging.Broker,
	config Config,
	logger *logger.Logger,
	m *metrics.Metrics,
) *Engine {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.ChannelTimeout <= 0 {
		config.ChannelTimeout = 10 * time.Second
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 5 * time.Minute
	}

	byName := make(map[model.NotificationChannel]channel.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}

	return &Engine{
		notifRepo:    notifRepo,
		deadlineRepo: deadlineRepo,
		prefs:        prefs,
		adapters:     byName,
		broker:       broker,
		config:       config,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

// WithClock overrides the engine clock. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Sweep runs one dispatch pass across every tenant with deliverable
// pending notifications. Tenant failures are isolated; one bad tenant
// cannot stall the rest of the pass.
func (e *Engine) Sweep(ctx context.Context) error {
	if e.metrics != nil {
		timer := prometheus.NewTimer(e.metrics.SweepLatency)
		defer timer.ObserveDuration()
	}

	tenantIDs, err := e.notifRepo.TenantsWithDue(ctx, e.now())
	if err != nil {
		return fmt.Errorf("failed to list tenants with due notifications: %w", err)
	}

	for _, tenantID := range tenantIDs {
		if _, err := e.SweepTenant(ctx, tenantID); err != nil {
			e.logger.Error(err, "tenant sweep failed", "tenant_id", tenantID.String())
		}
	}
	return nil
}

// SweepTenant processes up to BatchSize due notifications for one
// tenant, oldest first. Returns the number of notifications this
// worker actually claimed.
func (e *Engine) SweepTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	now := e.now()
	due, err := e.notifRepo.ListDue(ctx, tenantID, now, e.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list due notifications: %w", err)
	}

	if e.metrics != nil {
		e.metrics.SweepBatchSize.Observe(float64(len(due)))
	}

	claimed := 0
	for _, n := range due {
		// The claim increments the attempt counter and pushes
		// scheduled_for to the next retry slot in one conditional
		// update. Losing the race to another worker is not an error.
		owned, err := e.notifRepo.Claim(ctx, n.ID, now, now.Add(e.backoff(n.Attempts)))
		if err != nil {
			e.logger.Error(err, "failed to claim notification", "notification_id", n.ID.String())
			continue
		}
		if owned == nil {
			continue
		}
		claimed++

		if err := e.process(ctx, owned); err != nil {
			// Per-item isolation: log and move on.
			e.logger.Error(err, "failed to process notification", "notification_id", owned.ID.String())
		}
	}
	return claimed, nil
}

func (e *Engine) process(ctx context.Context, n *model.Notification) error {
	now := e.now()

	// A deadline alert whose parent reached a terminal state since
	// generation must not be delivered.
	if n.Category.IsDeadlineAlert() && n.DeadlineID != nil {
		deadline, err := e.deadlineRepo.Get(ctx, n.TenantID, *n.DeadlineID)
		if err != nil {
			return fmt.Errorf("failed to re-check parent deadline: %w", err)
		}
		if deadline.Status.IsTerminal() {
			if e.metrics != nil {
				e.metrics.NotificationsSuperseded.Inc()
			}
			return e.notifRepo.MarkFailed(ctx, n.ID, "superseded", now)
		}
	}

	pref, err := e.prefs.GetOrCreate(ctx, n.TenantID, n.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to resolve preferences: %w", err)
	}

	// Category disabled: acknowledge without delivery. The record is
	// still marked sent so suppression stays countable.
	if !pref.CategoryEnabled(n.Category) {
		if e.metrics != nil {
			e.metrics.NotificationsSuppressed.Inc()
		}
		return e.notifRepo.MarkSent(ctx, n.ID, now)
	}

	delivered, lastErr := e.deliver(ctx, n, pref)
	if delivered {
		if err := e.notifRepo.MarkSent(ctx, n.ID, now); err != nil {
			return err
		}
		if e.metrics != nil {
			e.metrics.NotificationsSent.WithLabelValues(string(n.Category)).Inc()
		}
		e.publishInApp(ctx, n)
		return nil
	}

	if n.Attempts >= e.config.MaxAttempts {
		if e.metrics != nil {
			e.metrics.NotificationsFailed.WithLabelValues(string(n.Category)).Inc()
		}
		return e.notifRepo.MarkFailed(ctx, n.ID, lastErr, now)
	}

	// Leave pending; the claim already scheduled the next attempt.
	return e.notifRepo.RecordError(ctx, n.ID, lastErr, now)
}

// deliver attempts every enabled external channel. A recipient with no
// external channel enabled still receives the notification in-app, in
// which case the record becoming visible is the delivery.
func (e *Engine) deliver(ctx context.Context, n *model.Notification, pref *model.Preference) (bool, string) {
	targets := e.targets(pref)
	if len(targets) == 0 {
		return true, ""
	}

	delivered := false
	lastErr := ""
	for ch, recipient := range targets {
		adapter, ok := e.adapters[ch]
		if !ok {
			continue
		}

		err := e.send(ctx, adapter, channel.Message{
			Recipient: recipient,
			Title:     n.Title,
			Body:      n.Message,
			Metadata: map[string]string{
				"notification_id": n.ID.String(),
				"category":        string(n.Category),
			},
		})
		if err != nil {
			lastErr = err.Error()
			e.logger.Warn("channel delivery failed",
				"channel", string(ch),
				"notification_id", n.ID.String(),
				"error", err.Error(),
			)
			continue
		}
		delivered = true
	}
	return delivered, lastErr
}

func (e *Engine) send(ctx context.Context, adapter channel.Adapter, msg channel.Message) error {
	callCtx, cancel := context.WithTimeout(ctx, e.config.ChannelTimeout)
	defer cancel()

	start := time.Now()
	err := adapter.Send(callCtx, msg)

	if e.metrics != nil {
		name := string(adapter.Name())
		e.metrics.ChannelLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
		result := "success"
		if err != nil {
			result = "failure"
		}
		e.metrics.ChannelCalls.WithLabelValues(name, result).Inc()
	}
	return err
}

// targets maps each enabled external channel to its recipient address.
func (e *Engine) targets(pref *model.Preference) map[model.NotificationChannel]string {
	targets := make(map[model.NotificationChannel]string, 3)
	if pref.ChannelEnabled(model.ChannelPush) {
		targets[model.ChannelPush] = pref.PushToken
	}
	if pref.ChannelEnabled(model.ChannelEmail) {
		targets[model.ChannelEmail] = pref.EmailAddress
	}
	if pref.ChannelEnabled(model.ChannelSMS) {
		targets[model.ChannelSMS] = pref.PhoneNumber
	}
	return targets
}

// publishInApp pushes the sent notification onto the recipient's live
// channel so open clients update without polling. Best effort.
func (e *Engine) publishInApp(ctx context.Context, n *model.Notification) {
	if e.broker == nil {
		return
	}
	event := messaging.Message{
		Type:    "notification_sent",
		Payload: n,
	}
	if err := e.broker.Publish(ctx, notification.InAppChannel(n.TenantID, n.RecipientID), event); err != nil {
		e.logger.Warn("failed to publish in-app event", "notification_id", n.ID.String())
	}
}

// backoff grows exponentially with the attempts already made, capped
// so a stuck notification is still retried a few times a day until the
// attempt budget runs out.
func (e *Engine) backoff(attempts int) time.Duration {
	d := e.config.RetryBackoff
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
