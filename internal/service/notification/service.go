package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/repository"
	"github.com/lexhub/deadline-api/pkg/logger"
	"github.com/lexhub/deadline-api/pkg/messaging"
)

// Service is the notification factory and read API. Generation always
// persists an audit record regardless of the recipient's preferences;
// suppression happens at dispatch time so "no delivery" stays
// observable and countable.
type Service struct {
	repo     repository.NotificationRepository
	caseRepo repository.CaseRepository
	broker   messaging.Broker
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.NotificationRepository, caseRepo repository.CaseRepository, broker messaging.Broker, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		caseRepo: caseRepo,
		broker:   broker,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GenerateForDeadline converts a classified deadline tier into a
// persisted pending notification. Generation is idempotent: if a live
// notification already exists for (deadline, tier), it is returned
// unchanged and nothing is inserted.
func (s *Service) GenerateForDeadline(ctx context.Context, deadline *model.Deadline, tier model.Tier, caseNumber string) (*model.Notification, error) {
	if tier.Kind == model.TierNone {
		return nil, fmt.Errorf("tier none does not produce a notification")
	}
	if deadline.ResponsibleUserID == nil {
		return nil, fmt.Errorf("deadline %s has no responsible user", deadline.ID)
	}

	key := model.DeadlineDedupKey(deadline.ID, tier)
	existing, err := s.repo.FindLiveByDedupKey(ctx, deadline.TenantID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check dedup key: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	title, message := deadlineContent(deadline, tier, caseNumber)

	now := s.now()
	notification := &model.Notification{
		ID:          uuid.New(),
		TenantID:    deadline.TenantID,
		RecipientID: *deadline.ResponsibleUserID,
		Category:    tier.Category(),
		Title:       title,
		Message:     message,
		Status:      model.NotificationStatusPending,
		DedupKey:    key,
		DeadlineID:  &deadline.ID,
		CaseID:      &deadline.CaseID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Info("alert generated",
		"notification_id", notification.ID.String(),
		"deadline_id", deadline.ID.String(),
		"tier", tier.Key(),
	)
	return notification, nil
}

// GenerateForEvent creates a case-event notification for the case's
// responsible user, with the same dedup guarantee keyed on the event.
func (s *Service) GenerateForEvent(ctx context.Context, tenantID uuid.UUID, event *model.CaseEvent) (*model.Notification, error) {
	c, err := s.caseRepo.Get(ctx, tenantID, event.CaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up case: %w", err)
	}
	if c.ResponsibleUserID == nil {
		return nil, fmt.Errorf("case %s has no responsible user", c.ID)
	}

	key := model.EventDedupKey(event.ID, model.NotificationCategoryCaseEvent)
	existing, err := s.repo.FindLiveByDedupKey(ctx, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check dedup key: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := s.now()
	notification := &model.Notification{
		ID:          uuid.New(),
		TenantID:    tenantID,
		RecipientID: *c.ResponsibleUserID,
		Category:    model.NotificationCategoryCaseEvent,
		Title:       fmt.Sprintf("New development on case %s", c.Number),
		Message:     event.Description,
		Status:      model.NotificationStatusPending,
		DedupKey:    key,
		CaseID:      &event.CaseID,
		EventID:     &event.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return notification, nil
}

// GenerateDailySummary creates the once-a-day digest of a user's open
// deadline counts. At most one live summary exists per user per day;
// an empty digest produces nothing.
func (s *Service) GenerateDailySummary(ctx context.Context, tenantID, userID uuid.UUID, digest model.DeadlineDigest) (*model.Notification, error) {
	if digest.Empty() {
		return nil, nil
	}

	now := s.now()
	key := model.DailySummaryDedupKey(userID, now)
	existing, err := s.repo.FindLiveByDedupKey(ctx, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check dedup key: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	notification := &model.Notification{
		ID:          uuid.New(),
		TenantID:    tenantID,
		RecipientID: userID,
		Category:    model.NotificationCategoryDailySummary,
		Title:       "Daily deadline summary",
		Message:     summaryContent(digest),
		Status:      model.NotificationStatusPending,
		DedupKey:    key,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create summary notification: %w", err)
	}
	return notification, nil
}

func summaryContent(digest model.DeadlineDigest) string {
	return fmt.Sprintf("%d due today, %d due within a week, %d overdue",
		digest.DueToday, digest.DueSoon, digest.Overdue)
}

func deadlineContent(deadline *model.Deadline, tier model.Tier, caseNumber string) (string, string) {
	var title string
	switch tier.Kind {
	case model.TierOverdue:
		title = "OVERDUE deadline"
	case model.TierDueToday:
		title = "Deadline due TODAY"
	default:
		if tier.Days == 1 {
			title = "Deadline due tomorrow"
		} else {
			title = fmt.Sprintf("Deadline due in %d days", tier.Days)
		}
	}
	message := fmt.Sprintf("Case %s: %s (due %s)",
		caseNumber, deadline.Description, deadline.DueDate.Format("2006-01-02"))
	return title, message
}

// ListForUser returns a user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool, p model.Pagination) ([]*model.Notification, error) {
	return s.repo.ListForUser(ctx, tenantID, userID, unreadOnly, p)
}

func (s *Service) CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, tenantID, userID)
}

// MarkRead marks the given notifications read on behalf of the user.
// Rows not owned by the user, or not yet sent, are left untouched.
func (s *Service) MarkRead(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	updated, err := s.repo.MarkRead(ctx, tenantID, userID, ids, s.now())
	if err != nil {
		return 0, err
	}

	if updated > 0 && s.broker != nil {
		event := messaging.Message{
			Type: "notifications_read",
			Payload: map[string]interface{}{
				"tenant_id": tenantID,
				"user_id":   userID,
				"count":     updated,
			},
		}
		if err := s.broker.Publish(ctx, InAppChannel(tenantID, userID), event); err != nil {
			s.logger.Error(err, "failed to publish read event")
		}
	}
	return updated, nil
}

// MarkAllRead marks every sent notification for the user read and
// publishes one live event when anything changed.
func (s *Service) MarkAllRead(ctx context.Context, tenantID, userID uuid.UUID) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, tenantID, userID, s.now())
	if err != nil {
		return 0, err
	}

	if updated > 0 && s.broker != nil {
		event := messaging.Message{
			Type: "notifications_read",
			Payload: map[string]interface{}{
				"tenant_id": tenantID,
				"user_id":   userID,
				"count":     updated,
			},
		}
		if err := s.broker.Publish(ctx, InAppChannel(tenantID, userID), event); err != nil {
			s.logger.Error(err, "failed to publish read event")
		}
	}
	return updated, nil
}

func (s *Service) Stats(ctx context.Context, tenantID, userID uuid.UUID) (*model.NotificationStats, error) {
	return s.repo.Stats(ctx, tenantID, userID)
}

// InAppChannel is the per-user broker channel that in-app clients
// subscribe to for live updates.
func InAppChannel(tenantID, userID uuid.UUID) string {
	return fmt.Sprintf("notifications:%s:%s", tenantID, userID)
}
