package deadline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/repository"
	"github.com/lexhub/deadline-api/internal/service/audit"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
	"github.com/lexhub/deadline-api/pkg/logger"
)

// AlertStore is the slice of the notification store the registry
// needs: retiring live alerts when their deadline is rescheduled.
type AlertStore interface {
	SupersedeForDeadline(ctx context.Context, tenantID, deadlineID uuid.UUID, at time.Time) (int64, error)
}

// Service owns deadline records and their lifecycle transitions.
// Deadlines are never physically deleted; terminal states are reached
// only through Fulfill and Cancel.
type Service struct {
	repo     repository.DeadlineRepository
	caseRepo repository.CaseRepository
	alerts   AlertStore
	auditor  *audit.Service
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.DeadlineRepository, caseRepo repository.CaseRepository, alerts AlertStore, auditor *audit.Service, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		caseRepo: caseRepo,
		alerts:   alerts,
		auditor:  auditor,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateDeadlineRequest) (*model.Deadline, error) {
	c, err := s.caseRepo.Get(ctx, tenantID, req.CaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up case: %w", err)
	}
	if c.Archived {
		return nil, apperrors.CaseClosed(c.ID.String())
	}

	responsible := req.ResponsibleUserID
	if responsible == nil {
		responsible = c.ResponsibleUserID
	}

	now := s.now()
	deadline := &model.Deadline{
		ID:                uuid.New(),
		TenantID:          tenantID,
		CaseID:            req.CaseID,
		Category:          req.Category,
		Description:       req.Description,
		DueDate:           req.DueDate,
		StartDate:         req.StartDate,
		Status:            model.DeadlineStatusPending,
		ResponsibleUserID: responsible,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, deadline); err != nil {
		return nil, fmt.Errorf("failed to create deadline: %w", err)
	}

	s.audit(ctx, tenantID, deadline.ID, "create", &audit.LogOptions{Changes: deadline})
	return deadline, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Deadline, error) {
	return s.get(ctx, tenantID, id)
}

// get wraps the repository lookup. Cross-tenant hits are a security
// event; they are logged with the marker before the error propagates.
func (s *Service) get(ctx context.Context, tenantID, id uuid.UUID) (*model.Deadline, error) {
	deadline, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTenantIsolation) {
			actorID, _ := ctx.Value("user_id").(uuid.UUID)
			s.logger.Security("cross-tenant deadline access denied",
				"tenant_id", tenantID.String(),
				"user_id", actorID.String(),
				"deadline_id", id.String(),
			)
		}
		return nil, err
	}
	return deadline, nil
}

// Update rejects changes to due date or category once the deadline is
// terminal. The due date of a fulfilled or cancelled deadline is part
// of the historical record.
//
// Moving the due date resets the alert state: the recorded tier is
// cleared and every live alert for the old date is retired, so the
// rescheduled deadline alerts again at each threshold it crosses.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req *model.UpdateDeadlineRequest) (*model.Deadline, error) {
	deadline, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if deadline.Status.IsTerminal() && (req.DueDate != nil || req.Category != nil) {
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("deadline is %s; due date and category are immutable", deadline.Status))
	}

	rescheduled := req.DueDate != nil && !req.DueDate.Equal(deadline.DueDate)

	if req.Category != nil {
		deadline.Category = *req.Category
	}
	if req.Description != nil {
		deadline.Description = *req.Description
	}
	if req.DueDate != nil {
		deadline.DueDate = *req.DueDate
	}
	if req.StartDate != nil {
		deadline.StartDate = req.StartDate
	}
	if req.ResponsibleUserID != nil {
		deadline.ResponsibleUserID = req.ResponsibleUserID
	}
	if rescheduled {
		deadline.LastAlertTier = ""
	}

	if err := s.repo.Update(ctx, deadline); err != nil {
		return nil, fmt.Errorf("failed to update deadline: %w", err)
	}

	if rescheduled {
		if _, err := s.alerts.SupersedeForDeadline(ctx, tenantID, id, s.now()); err != nil {
			s.logger.Error(err, "failed to retire alerts for rescheduled deadline",
				"deadline_id", id.String())
		}
	}

	s.audit(ctx, tenantID, id, "update", &audit.LogOptions{Changes: req})
	return deadline, nil
}

// Start moves a pending deadline into in_progress, marking that
// someone has picked up the work.
func (s *Service) Start(ctx context.Context, tenantID, id, actorID uuid.UUID) (*model.Deadline, error) {
	deadline, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if deadline.Status != model.DeadlineStatusPending {
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("deadline is already %s", deadline.Status))
	}

	deadline.Status = model.DeadlineStatusInProgress
	if err := s.repo.Update(ctx, deadline); err != nil {
		return nil, fmt.Errorf("failed to start deadline: %w", err)
	}

	s.audit(ctx, tenantID, id, "start", nil)
	return deadline, nil
}

// Fulfill records who met the deadline and when. A second call is an
// error, not a no-op: double fulfillment usually means two people
// worked the same deadline and someone should notice.
func (s *Service) Fulfill(ctx context.Context, tenantID, id, actorID uuid.UUID) (*model.Deadline, error) {
	deadline, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if deadline.Status.IsTerminal() {
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("deadline is already %s", deadline.Status))
	}

	now := s.now()
	deadline.Status = model.DeadlineStatusFulfilled
	deadline.FulfilledByID = &actorID
	deadline.FulfilledAt = &now

	if err := s.repo.Update(ctx, deadline); err != nil {
		return nil, fmt.Errorf("failed to fulfill deadline: %w", err)
	}

	s.audit(ctx, tenantID, id, "fulfill", &audit.LogOptions{
		Metadata: map[string]interface{}{"fulfilled_by": actorID, "fulfilled_at": now},
	})
	return deadline, nil
}

func (s *Service) Cancel(ctx context.Context, tenantID, id, actorID uuid.UUID, reason string) (*model.Deadline, error) {
	deadline, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if deadline.Status.IsTerminal() {
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("deadline is already %s", deadline.Status))
	}

	deadline.Status = model.DeadlineStatusCancelled
	deadline.CancelReason = &reason

	if err := s.repo.Update(ctx, deadline); err != nil {
		return nil, fmt.Errorf("failed to cancel deadline: %w", err)
	}

	s.audit(ctx, tenantID, id, "cancel", &audit.LogOptions{
		Metadata: map[string]interface{}{"reason": reason},
	})
	return deadline, nil
}

// ListPending returns open deadlines due within horizonDays.
func (s *Service) ListPending(ctx context.Context, tenantID uuid.UUID, horizonDays int) ([]*model.Deadline, error) {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	dueBefore := s.now().AddDate(0, 0, horizonDays)
	return s.repo.ListPending(ctx, tenantID, dueBefore)
}

// ListUrgent returns open deadlines due within the urgency window.
func (s *Service) ListUrgent(ctx context.Context, tenantID uuid.UUID, days int) ([]*model.Deadline, error) {
	if days <= 0 {
		days = model.DefaultUrgencyWindow
	}
	deadlines, err := s.repo.ListPending(ctx, tenantID, s.now().AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}

	urgent := make([]*model.Deadline, 0, len(deadlines))
	for _, d := range deadlines {
		if d.IsUrgent(s.now(), days) {
			urgent = append(urgent, d)
		}
	}
	return urgent, nil
}

func (s *Service) ListOverdue(ctx context.Context, tenantID uuid.UUID) ([]*model.Deadline, error) {
	today := s.now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.ListOverdue(ctx, tenantID, today)
}

func (s *Service) ListByCase(ctx context.Context, tenantID, caseID uuid.UUID) ([]*model.Deadline, error) {
	return s.repo.ListByCase(ctx, tenantID, caseID)
}

func (s *Service) audit(ctx context.Context, tenantID, id uuid.UUID, action string, opts *audit.LogOptions) {
	actorID, _ := ctx.Value("user_id").(uuid.UUID)
	if err := s.auditor.Log(ctx, tenantID, actorID, action, "deadline", id, opts); err != nil {
		// Auditing never blocks the operation itself.
		_ = err
	}
}
