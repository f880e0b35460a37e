package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/repository"
	"github.com/lexhub/deadline-api/internal/service/deadline"
	"github.com/lexhub/deadline-api/internal/service/notification"
	"github.com/lexhub/deadline-api/pkg/logger"
	"github.com/lexhub/deadline-api/pkg/metrics"
)

// dueSoonWindow is the days-remaining window the daily summary counts
// as "due within a week".
const dueSoonWindow = 7

// Scanner runs the daily deadline scan: classify every open deadline
// against its tenant's alert ladder, hand matching tiers to the
// notification factory, and close the pass with one digest per
// recipient. The scan is idempotent; re-running it on the same day
// generates nothing new.
type Scanner struct {
	tenants     repository.TenantRepository
	deadlines   repository.DeadlineRepository
	cases       repository.CaseRepository
	notifier    *notification.Service
	logger      *logger.Logger
	metrics     *metrics.Metrics
	horizonDays int
	now         func() time.Time
}

func NewScanner(
	tenants repository.TenantRepository,
	deadlines repository.DeadlineRepository,
	cases repository.CaseRepository,
	notifier *notification.Service,
	logger *logger.Logger,
	m *metrics.Metrics,
	horizonDays int,
) *Scanner {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &Scanner{
		tenants:     tenants,
		deadlines:   deadlines,
		cases:       cases,
		notifier:    notifier,
		logger:      logger,
		metrics:     m,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

// WithClock overrides the scanner clock. Used by tests.
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// Run executes one full scan pass over every active tenant. A failing
// tenant is logged and counted, never allowed to abort the pass.
func (s *Scanner) Run(ctx context.Context) error {
	if s.metrics != nil {
		timer := prometheus.NewTimer(s.metrics.ScanLatency)
		defer timer.ObserveDuration()
	}

	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active tenants: %w", err)
	}

	s.logger.Info("deadline scan started", "tenants", len(tenants))

	for _, tenant := range tenants {
		if err := s.scanTenant(ctx, tenant); err != nil {
			if s.metrics != nil {
				s.metrics.ScanTenantsFailed.Inc()
			}
			s.logger.Error(err, "tenant scan failed", "tenant_id", tenant.ID.String())
		}
	}
	return nil
}

func (s *Scanner) scanTenant(ctx context.Context, tenant *model.Tenant) error {
	today := s.now()
	open, err := s.deadlines.ListOpen(ctx, tenant.ID, today.AddDate(0, 0, s.horizonDays))
	if err != nil {
		return fmt.Errorf("failed to list open deadlines: %w", err)
	}

	thresholds := tenant.Thresholds()
	generated := 0

	for _, d := range open {
		if s.metrics != nil {
			s.metrics.DeadlinesScanned.Inc()
		}

		tier := deadline.Classify(d.DueDate, today, thresholds)
		if tier.Kind == model.TierNone {
			continue
		}
		// Already alerted at this tier on a previous pass.
		if d.LastAlertTier == tier.Key() {
			continue
		}

		if err := s.alert(ctx, d, tier); err != nil {
			// Per-deadline isolation: one bad record must not starve
			// the rest of the tenant.
			s.logger.Error(err, "failed to generate alert",
				"deadline_id", d.ID.String(),
				"tier", tier.Key(),
			)
			continue
		}
		generated++
	}

	s.summarize(ctx, tenant.ID, open, today)

	s.logger.Info("tenant scan complete",
		"tenant_id", tenant.ID.String(),
		"open_deadlines", len(open),
		"alerts_generated", generated,
	)
	return nil
}

// summarize builds one digest per responsible user from the pass's
// open deadlines. Dedup in the factory makes this idempotent per day.
func (s *Scanner) summarize(ctx context.Context, tenantID uuid.UUID, open []*model.Deadline, today time.Time) {
	digests := make(map[uuid.UUID]model.DeadlineDigest)
	for _, d := range open {
		if d.ResponsibleUserID == nil {
			continue
		}
		digest := digests[*d.ResponsibleUserID]
		switch days := d.DaysRemaining(today); {
		case days < 0:
			digest.Overdue++
		case days == 0:
			digest.DueToday++
		case days <= dueSoonWindow:
			digest.DueSoon++
		}
		digests[*d.ResponsibleUserID] = digest
	}

	for userID, digest := range digests {
		if _, err := s.notifier.GenerateDailySummary(ctx, tenantID, userID, digest); err != nil {
			s.logger.Error(err, "failed to generate daily summary",
				"tenant_id", tenantID.String(),
				"user_id", userID.String(),
			)
		}
	}
}

func (s *Scanner) alert(ctx context.Context, d *model.Deadline, tier model.Tier) error {
	caseNumber := ""
	if c, err := s.cases.Get(ctx, d.TenantID, d.CaseID); err == nil {
		caseNumber = c.Number
	} else {
		s.logger.Warn("case lookup failed, alerting without case number",
			"deadline_id", d.ID.String(),
		)
	}

	if _, err := s.notifier.GenerateForDeadline(ctx, d, tier, caseNumber); err != nil {
		return err
	}

	if err := s.deadlines.SetLastAlertTier(ctx, d.TenantID, d.ID, tier.Key()); err != nil {
		return fmt.Errorf("failed to record alert tier: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AlertsGenerated.WithLabelValues(tier.Key()).Inc()
	}
	return nil
}
