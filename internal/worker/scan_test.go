package worker

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
	"github.com/lexhub/deadline-api/internal/service/notification"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
	"github.com/lexhub/deadline-api/pkg/logger"
)

type stubTenantRepo struct {
	tenants []*model.Tenant
}

func (r *stubTenantRepo) Get(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	for _, t := range r.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperrors.NotFound("tenant", nil)
}

func (r *stubTenantRepo) ListActive(_ context.Context) ([]*model.Tenant, error) {
	var out []*model.Tenant
	for _, t := range r.tenants {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

type stubDeadlineRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Deadline
}

func newStubDeadlineRepo() *stubDeadlineRepo {
	return &stubDeadlineRepo{items: make(map[uuid.UUID]*model.Deadline)}
}

func (r *stubDeadlineRepo) Create(_ context.Context, d *model.Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.items[d.ID] = &cp
	return nil
}

func (r *stubDeadlineRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*model.Deadline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok || d.TenantID != tenantID {
		return nil, apperrors.NotFound("deadline", nil)
	}
	cp := *d
	return &cp, nil
}

func (r *stubDeadlineRepo) Update(_ context.Context, d *model.Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.items[d.ID] = &cp
	return nil
}

func (r *stubDeadlineRepo) ListOpen(_ context.Context, tenantID uuid.UUID, dueBefore time.Time) ([]*model.Deadline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Deadline
	for _, d := range r.items {
		if d.TenantID == tenantID && !d.Status.IsTerminal() && !d.DueDate.After(dueBefore) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubDeadlineRepo) ListPending(_ context.Context, _ uuid.UUID, _ time.Time) ([]*model.Deadline, error) {
	return nil, nil
}

func (r *stubDeadlineRepo) ListOverdue(_ context.Context, _ uuid.UUID, _ time.Time) ([]*model.Deadline, error) {
	return nil, nil
}

func (r *stubDeadlineRepo) ListByCase(_ context.Context, _, _ uuid.UUID) ([]*model.Deadline, error) {
	return nil, nil
}

func (r *stubDeadlineRepo) SetLastAlertTier(_ context.Context, tenantID, id uuid.UUID, tier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok || d.TenantID != tenantID {
		return apperrors.NotFound("deadline", nil)
	}
	d.LastAlertTier = tier
	return nil
}

type stubCaseRepo struct {
	cases map[uuid.UUID]*model.LegalCase
}

func (r *stubCaseRepo) Get(_ context.Context, _, id uuid.UUID) (*model.LegalCase, error) {
	c, ok := r.cases[id]
	if !ok {
		return nil, apperrors.NotFound("case", nil)
	}
	return c, nil
}

func (r *stubCaseRepo) GetEvent(_ context.Context, _, _ uuid.UUID) (*model.CaseEvent, error) {
	return nil, apperrors.NotFound("case event", nil)
}

type stubNotificationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Notification
}

func newStubNotificationRepo() *stubNotificationRepo {
	return &stubNotificationRepo{items: make(map[uuid.UUID]*model.Notification)}
}

func (r *stubNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *stubNotificationRepo) Get(_ context.Context, _, _ uuid.UUID) (*model.Notification, error) {
	return nil, apperrors.NotFound("notification", nil)
}

func (r *stubNotificationRepo) FindLiveByDedupKey(_ context.Context, tenantID uuid.UUID, key string) (*model.Notification, error) {
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

func (r *stubNotificationRepo) ListDue(_ context.Context, _ uuid.UUID, _ time.Time, _ int) ([]*model.Notification, error) {
	return nil, nil
}

func (r *stubNotificationRepo) Claim(_ context.Context, _ uuid.UUID, _, _ time.Time) (*model.Notification, error) {
	return nil, nil
}

func (r *stubNotificationRepo) MarkSent(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (r *stubNotificationRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

func (r *stubNotificationRepo) RecordError(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

func (r *stubNotificationRepo) ListForUser(_ context.Context, _, _ uuid.UUID, _ bool, _ model.Pagination) ([]*model.Notification, error) {
	return nil, nil
}

func (r *stubNotificationRepo) CountUnread(_ context.Context, _, _ uuid.UUID) (int, error) {
	return 0, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, _, _ uuid.UUID, _ []uuid.UUID, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *stubNotificationRepo) MarkAllRead(_ context.Context, _, _ uuid.UUID, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *stubNotificationRepo) SupersedeForDeadline(_ context.Context, _, _ uuid.UUID, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *stubNotificationRepo) Stats(_ context.Context, _, _ uuid.UUID) (*model.NotificationStats, error) {
	return &model.NotificationStats{}, nil
}

func (r *stubNotificationRepo) TenantsWithDue(_ context.Context, _ time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (r *stubNotificationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *stubNotificationRepo) countAlerts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Category != model.NotificationCategoryDailySummary {
			n++
		}
	}
	return n
}

func (r *stubNotificationRepo) summaries() []*model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, item := range r.items {
		if item.Category == model.NotificationCategoryDailySummary {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out
}

type scanFixture struct {
	scanner   *Scanner
	tenants   *stubTenantRepo
	deadlines *stubDeadlineRepo
	cases     *stubCaseRepo
	notifs    *stubNotificationRepo
	tenantID  uuid.UUID
	caseID    uuid.UUID
	today     time.Time
}

func newScanFixture(t *testing.T) *scanFixture {
	t.Helper()

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})

	f := &scanFixture{
		deadlines: newStubDeadlineRepo(),
		notifs:    newStubNotificationRepo(),
		tenantID:  uuid.New(),
		caseID:    uuid.New(),
		today:     time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	f.tenants = &stubTenantRepo{tenants: []*model.Tenant{
		{ID: f.tenantID, Name: "Firm A", Active: true},
	}}

	responsible := uuid.New()
	f.cases = &stubCaseRepo{cases: map[uuid.UUID]*model.LegalCase{
		f.caseID: {
			ID:                f.caseID,
			TenantID:          f.tenantID,
			Number:            "2026-0042",
			ResponsibleUserID: &responsible,
		},
	}}

	notifier := notification.NewService(f.notifs, f.cases, nil, log).
		WithClock(func() time.Time { return f.today })

	f.scanner = NewScanner(f.tenants, f.deadlines, f.cases, notifier, log, nil, 30).
		WithClock(func() time.Time { return f.today })
	return f
}

func (f *scanFixture) addDeadline(daysOut int) *model.Deadline {
	return f.addDeadlineFor(uuid.New(), daysOut)
}

func (f *scanFixture) addDeadlineFor(responsible uuid.UUID, daysOut int) *model.Deadline {
	d := &model.Deadline{
		ID:                uuid.New(),
		TenantID:          f.tenantID,
		CaseID:            f.caseID,
		Category:          model.DeadlineCategoryResponse,
		Description:       "File answer",
		DueDate:           f.today.AddDate(0, 0, daysOut),
		Status:            model.DeadlineStatusPending,
		ResponsibleUserID: &responsible,
	}
	f.deadlines.items[d.ID] = d
	return d
}

func TestScanGeneratesAlertsAtThresholds(t *testing.T) {
	f := newScanFixture(t)

	dueIn3 := f.addDeadline(3)
	dueToday := f.addDeadline(0)
	overdue := f.addDeadline(-2)
	f.addDeadline(10) // off the ladder, no alert

	require.NoError(t, f.scanner.Run(context.Background()))

	assert.Equal(t, 3, f.notifs.countAlerts())

	d, _ := f.deadlines.Get(context.Background(), f.tenantID, dueIn3.ID)
	assert.Equal(t, "upcoming_3", d.LastAlertTier)

	d, _ = f.deadlines.Get(context.Background(), f.tenantID, dueToday.ID)
	assert.Equal(t, "due_today", d.LastAlertTier)

	d, _ = f.deadlines.Get(context.Background(), f.tenantID, overdue.ID)
	assert.Equal(t, "overdue", d.LastAlertTier)
}

func TestScanRerunIsIdempotent(t *testing.T) {
	f := newScanFixture(t)
	f.addDeadline(1)

	require.NoError(t, f.scanner.Run(context.Background()))
	require.NoError(t, f.scanner.Run(context.Background()))

	assert.Equal(t, 1, f.notifs.countAlerts())
	assert.Len(t, f.notifs.summaries(), 1)
}

func TestScanAdvancesTiersAcrossDays(t *testing.T) {
	f := newScanFixture(t)
	f.addDeadline(1)

	require.NoError(t, f.scanner.Run(context.Background()))
	assert.Equal(t, 1, f.notifs.countAlerts())

	// The next morning the same deadline is due today: a new tier, a
	// new alert.
	f.today = f.today.AddDate(0, 0, 1)
	require.NoError(t, f.scanner.Run(context.Background()))
	assert.Equal(t, 2, f.notifs.countAlerts())

	// And once overdue, one more.
	f.today = f.today.AddDate(0, 0, 1)
	require.NoError(t, f.scanner.Run(context.Background()))
	assert.Equal(t, 3, f.notifs.countAlerts())

	// Staying overdue does not spam: the tier no longer changes.
	f.today = f.today.AddDate(0, 0, 5)
	require.NoError(t, f.scanner.Run(context.Background()))
	assert.Equal(t, 3, f.notifs.countAlerts())
}

func TestScanSkipsInactiveTenants(t *testing.T) {
	f := newScanFixture(t)
	f.tenants.tenants[0].Active = false
	f.addDeadline(0)

	require.NoError(t, f.scanner.Run(context.Background()))
	assert.Zero(t, f.notifs.count())
}

func TestScanIsolatesBadDeadlines(t *testing.T) {
	f := newScanFixture(t)

	// A deadline with no resolvable recipient fails generation but
	// must not block the rest of the pass.
	broken := f.addDeadline(0)
	f.deadlines.items[broken.ID].ResponsibleUserID = nil

	f.addDeadline(1)

	require.NoError(t, f.scanner.Run(context.Background()))
	assert.Equal(t, 1, f.notifs.countAlerts())
	// The broken deadline has no recipient, so it is absent from the
	// digests as well.
	assert.Len(t, f.notifs.summaries(), 1)
}

func TestScanStopsAtHorizon(t *testing.T) {
	f := newScanFixture(t)

	f.addDeadline(40)

	require.NoError(t, f.scanner.Run(context.Background()))
	assert.Zero(t, f.notifs.count())
}

func TestScanBuildsPerUserDigest(t *testing.T) {
	f := newScanFixture(t)
	user := uuid.New()

	f.addDeadlineFor(user, 0)
	f.addDeadlineFor(user, 5)
	f.addDeadlineFor(user, -1)
	f.addDeadlineFor(user, 20) // open but outside the digest windows

	require.NoError(t, f.scanner.Run(context.Background()))

	summaries := f.notifs.summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, user, summaries[0].RecipientID)
	assert.Equal(t, "1 due today, 1 due within a week, 1 overdue", summaries[0].Message)
}
