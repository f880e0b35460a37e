package notification

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexhub/deadline-api/internal/model"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
	"github.com/lexhub/deadline-api/pkg/logger"
)

type fakeNotificationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: make(map[uuid.UUID]*model.Notification)}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.TenantID != tenantID {
		return nil, apperrors.NotFound("notification", nil)
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNotificationRepo) FindLiveByDedupKey(_ context.Context, tenantID uuid.UUID, key string) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.TenantID == tenantID && n.DedupKey == key && n.Status != model.NotificationStatusFailed {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeNotificationRepo) ListDue(_ context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.items {
		if n.TenantID != tenantID || n.Status != model.NotificationStatusPending {
			continue
		}
		if n.ScheduledFor != nil && n.ScheduledFor.After(now) {
			continue
		}
		cp := *n
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) Claim(_ context.Context, id uuid.UUID, now, nextDue time.Time) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.Status != model.NotificationStatusPending {
		return nil, nil
	}
	if n.ScheduledFor != nil && n.ScheduledFor.After(now) {
		return nil, nil
	}
	n.Attempts++
	n.ScheduledFor = &nextDue
	cp := *n
	return &cp, nil
}

func (r *fakeNotificationRepo) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok && n.Status == model.NotificationStatusPending {
		n.Status = model.NotificationStatusSent
		n.SentAt = &at
	}
	return nil
}

func (r *fakeNotificationRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		n.Status = model.NotificationStatusFailed
		n.LastError = reason
	}
	return nil
}

func (r *fakeNotificationRepo) RecordError(_ context.Context, id uuid.UUID, lastError string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		n.LastError = lastError
	}
	return nil
}

func (r *fakeNotificationRepo) ListForUser(_ context.Context, tenantID, userID uuid.UUID, unreadOnly bool, _ model.Pagination) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.items {
		if n.TenantID != tenantID || n.RecipientID != userID {
			continue
		}
		if unreadOnly && (n.Status != model.NotificationStatusSent || n.ReadAt != nil) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, tenantID, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.items {
		if n.TenantID == tenantID && n.RecipientID == userID &&
			n.Status == model.NotificationStatusSent && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, id := range ids {
		n, ok := r.items[id]
		if !ok || n.TenantID != tenantID || n.RecipientID != userID {
			continue
		}
		if n.Status != model.NotificationStatusSent {
			continue
		}
		n.Status = model.NotificationStatusRead
		n.ReadAt = &at
		updated++
	}
	return updated, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, tenantID, userID uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, n := range r.items {
		if n.TenantID != tenantID || n.RecipientID != userID {
			continue
		}
		if n.Status != model.NotificationStatusSent {
			continue
		}
		n.Status = model.NotificationStatusRead
		n.ReadAt = &at
		updated++
	}
	return updated, nil
}

func (r *fakeNotificationRepo) SupersedeForDeadline(_ context.Context, tenantID, deadlineID uuid.UUID, _ time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var retired int64
	for _, n := range r.items {
		if n.TenantID != tenantID || n.DeadlineID == nil || *n.DeadlineID != deadlineID {
			continue
		}
		if n.Status == model.NotificationStatusFailed {
			continue
		}
		n.Status = model.NotificationStatusFailed
		n.LastError = "superseded"
		retired++
	}
	return retired, nil
}

func (r *fakeNotificationRepo) Stats(_ context.Context, tenantID, userID uuid.UUID) (*model.NotificationStats, error) {
	return &model.NotificationStats{}, nil
}

func (r *fakeNotificationRepo) TenantsWithDue(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, n := range r.items {
		if n.Status != model.NotificationStatusPending {
			continue
		}
		if n.ScheduledFor != nil && n.ScheduledFor.After(now) {
			continue
		}
		if !seen[n.TenantID] {
			seen[n.TenantID] = true
			out = append(out, n.TenantID)
		}
	}
	return out, nil
}

type fakeCaseRepo struct {
	cases map[uuid.UUID]*model.LegalCase
}

func (r *fakeCaseRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*model.LegalCase, error) {
	c, ok := r.cases[id]
	if !ok {
		return nil, apperrors.NotFound("case", nil)
	}
	return c, nil
}

func (r *fakeCaseRepo) GetEvent(_ context.Context, tenantID, id uuid.UUID) (*model.CaseEvent, error) {
	return nil, apperrors.NotFound("case event", nil)
}

type fakeBroker struct {
	mu        sync.Mutex
	published []string
}

func (b *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, channel)
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
}

func testDeadline(tenantID uuid.UUID) *model.Deadline {
	responsible := uuid.New()
	return &model.Deadline{
		ID:                uuid.New(),
		TenantID:          tenantID,
		CaseID:            uuid.New(),
		Category:          model.DeadlineCategoryResponse,
		Description:       "File answer to complaint",
		DueDate:           time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		Status:            model.DeadlineStatusPending,
		ResponsibleUserID: &responsible,
	}
}

func TestGenerateForDeadlineDedup(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo, &fakeCaseRepo{}, nil, testLogger())

	tenantID := uuid.New()
	d := testDeadline(tenantID)
	tier := model.Tier{Kind: model.TierUpcoming, Days: 3}

	first, err := svc.GenerateForDeadline(context.Background(), d, tier, "2026-0042")
	require.NoError(t, err)
	assert.Equal(t, model.NotificationStatusPending, first.Status)
	assert.Equal(t, *d.ResponsibleUserID, first.RecipientID)
	assert.Equal(t, model.NotificationCategoryApproaching, first.Category)

	// Same deadline, same tier: no second record.
	second, err := svc.GenerateForDeadline(context.Background(), d, tier, "2026-0042")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.items, 1)

	// A different tier for the same deadline is a new alert.
	third, err := svc.GenerateForDeadline(context.Background(), d, model.Tier{Kind: model.TierDueToday}, "2026-0042")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Len(t, repo.items, 2)
}

func TestGenerateForDeadlineAfterFailure(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo, &fakeCaseRepo{}, nil, testLogger())

	tenantID := uuid.New()
	d := testDeadline(tenantID)
	tier := model.Tier{Kind: model.TierOverdue}

	first, err := svc.GenerateForDeadline(context.Background(), d, tier, "2026-0042")
	require.NoError(t, err)

	// A failed notification no longer blocks regeneration.
	require.NoError(t, repo.MarkFailed(context.Background(), first.ID, "smtp down", time.Now()))

	second, err := svc.GenerateForDeadline(context.Background(), d, tier, "2026-0042")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestGenerateForDeadlineRejectsTierNone(t *testing.T) {
	svc := NewService(newFakeNotificationRepo(), &fakeCaseRepo{}, nil, testLogger())

	_, err := svc.GenerateForDeadline(context.Background(), testDeadline(uuid.New()), model.Tier{Kind: model.TierNone}, "")
	assert.Error(t, err)
}

func TestGenerateForEventDedup(t *testing.T) {
	repo := newFakeNotificationRepo()
	tenantID := uuid.New()
	responsible := uuid.New()

	caseRepo := &fakeCaseRepo{cases: map[uuid.UUID]*model.LegalCase{}}
	legalCase := &model.LegalCase{
		ID:                uuid.New(),
		TenantID:          tenantID,
		Number:            "2026-0099",
		ResponsibleUserID: &responsible,
	}
	caseRepo.cases[legalCase.ID] = legalCase

	svc := NewService(repo, caseRepo, nil, testLogger())

	event := &model.CaseEvent{
		ID:          uuid.New(),
		TenantID:    tenantID,
		CaseID:      legalCase.ID,
		Description: "Ruling entered",
		OccurredAt:  time.Now(),
	}

	first, err := svc.GenerateForEvent(context.Background(), tenantID, event)
	require.NoError(t, err)
	assert.Equal(t, responsible, first.RecipientID)
	assert.Equal(t, model.NotificationCategoryCaseEvent, first.Category)

	second, err := svc.GenerateForEvent(context.Background(), tenantID, event)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.items, 1)
}

func TestSupersedeFreesDedupKey(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo, &fakeCaseRepo{}, nil, testLogger())

	tenantID := uuid.New()
	d := testDeadline(tenantID)
	tier := model.Tier{Kind: model.TierUpcoming, Days: 3}

	first, err := svc.GenerateForDeadline(context.Background(), d, tier, "2026-0042")
	require.NoError(t, err)

	// Rescheduling retires the live alert, so the same tier can fire
	// again for the new due date.
	retired, err := repo.SupersedeForDeadline(context.Background(), tenantID, d.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), retired)

	second, err := svc.GenerateForDeadline(context.Background(), d, tier, "2026-0042")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestGenerateDailySummary(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo, &fakeCaseRepo{}, nil, testLogger()).WithClock(func() time.Time {
		return time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	})

	tenantID := uuid.New()
	userID := uuid.New()
	digest := model.DeadlineDigest{DueToday: 1, DueSoon: 2, Overdue: 1}

	first, err := svc.GenerateDailySummary(context.Background(), tenantID, userID, digest)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, model.NotificationCategoryDailySummary, first.Category)
	assert.Equal(t, "1 due today, 2 due within a week, 1 overdue", first.Message)

	// One summary per user per day, even if the scan re-runs.
	second, err := svc.GenerateDailySummary(context.Background(), tenantID, userID, digest)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.items, 1)

	// Nothing open means no summary at all.
	none, err := svc.GenerateDailySummary(context.Background(), tenantID, uuid.New(), model.DeadlineDigest{})
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Len(t, repo.items, 1)
}

func TestMarkAllRead(t *testing.T) {
	repo := newFakeNotificationRepo()
	broker := &fakeBroker{}
	svc := NewService(repo, &fakeCaseRepo{}, broker, testLogger())

	tenantID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	add := func(status model.NotificationStatus) {
		n := &model.Notification{
			ID:          uuid.New(),
			TenantID:    tenantID,
			RecipientID: userID,
			Category:    model.NotificationCategorySystem,
			Status:      status,
		}
		if status == model.NotificationStatusSent {
			n.SentAt = &now
		}
		require.NoError(t, repo.Create(context.Background(), n))
	}
	add(model.NotificationStatusSent)
	add(model.NotificationStatusSent)
	add(model.NotificationStatusPending)

	updated, err := svc.MarkAllRead(context.Background(), tenantID, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	assert.Equal(t, []string{InAppChannel(tenantID, userID)}, broker.published)

	// Pending rows were not touched and a second sweep is a no-op.
	broker.published = nil
	updated, err = svc.MarkAllRead(context.Background(), tenantID, userID)
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Empty(t, broker.published)
}

func TestMarkReadPublishesEvent(t *testing.T) {
	repo := newFakeNotificationRepo()
	broker := &fakeBroker{}
	svc := NewService(repo, &fakeCaseRepo{}, broker, testLogger())

	tenantID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	n := &model.Notification{
		ID:          uuid.New(),
		TenantID:    tenantID,
		RecipientID: userID,
		Category:    model.NotificationCategorySystem,
		Status:      model.NotificationStatusSent,
		SentAt:      &now,
	}
	require.NoError(t, repo.Create(context.Background(), n))

	updated, err := svc.MarkRead(context.Background(), tenantID, userID, []uuid.UUID{n.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
	assert.Equal(t, []string{InAppChannel(tenantID, userID)}, broker.published)

	// Marking someone else's notification changes nothing and stays
	// silent.
	broker.published = nil
	updated, err = svc.MarkRead(context.Background(), tenantID, uuid.New(), []uuid.UUID{n.ID})
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Empty(t, broker.published)
}
