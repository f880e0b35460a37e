package preference

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexhub/deadline-api/internal/model"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
)

type fakePreferenceRepo struct {
	byUser  map[string]*model.Preference
	creates int
}

func newFakePreferenceRepo() *fakePreferenceRepo {
	return &fakePreferenceRepo{byUser: make(map[string]*model.Preference)}
}

func (r *fakePreferenceRepo) GetByUser(_ context.Context, tenantID, userID uuid.UUID) (*model.Preference, error) {
	p, ok := r.byUser[cacheKey(tenantID, userID)]
	if !ok {
		return nil, apperrors.NotFound("preference", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *fakePreferenceRepo) Create(_ context.Context, pref *model.Preference) error {
	r.creates++
	key := cacheKey(pref.TenantID, pref.UserID)
	// Mirrors ON CONFLICT DO NOTHING.
	if _, ok := r.byUser[key]; ok {
		return nil
	}
	cp := *pref
	r.byUser[key] = &cp
	return nil
}

func (r *fakePreferenceRepo) Update(_ context.Context, pref *model.Preference) error {
	cp := *pref
	r.byUser[cacheKey(pref.TenantID, pref.UserID)] = &cp
	return nil
}

func TestGetOrCreateDefaults(t *testing.T) {
	repo := newFakePreferenceRepo()
	svc := NewService(repo)

	tenantID := uuid.New()
	userID := uuid.New()

	pref, err := svc.GetOrCreate(context.Background(), tenantID, userID)
	require.NoError(t, err)

	assert.True(t, pref.PushEnabled)
	assert.True(t, pref.EmailEnabled)
	assert.False(t, pref.SMSEnabled)
	assert.True(t, pref.ApproachingEnabled)
	assert.True(t, pref.DueTodayEnabled)
	assert.True(t, pref.OverdueEnabled)
	assert.True(t, pref.CaseEventEnabled)
	assert.True(t, pref.SystemEnabled)
	assert.True(t, pref.DailySummaryEnabled)

	// Second resolve serves the cache, not another insert.
	_, err = svc.GetOrCreate(context.Background(), tenantID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.creates)
}

func TestChannelEnabledNeedsTarget(t *testing.T) {
	pref := model.NewDefaultPreference(uuid.New(), uuid.New())

	// Toggles are on by default but no addresses are registered yet.
	assert.False(t, pref.ChannelEnabled(model.ChannelPush))
	assert.False(t, pref.ChannelEnabled(model.ChannelEmail))
	assert.False(t, pref.ChannelEnabled(model.ChannelSMS))
	assert.True(t, pref.ChannelEnabled(model.ChannelInApp))

	pref.EmailAddress = "lawyer@example.com"
	assert.True(t, pref.ChannelEnabled(model.ChannelEmail))

	pref.PushToken = "device-token"
	assert.True(t, pref.ChannelEnabled(model.ChannelPush))

	pref.PhoneNumber = "+15550100"
	assert.False(t, pref.ChannelEnabled(model.ChannelSMS), "sms stays off until enabled")
	pref.SMSEnabled = true
	assert.True(t, pref.ChannelEnabled(model.ChannelSMS))
}

func TestIsAllowed(t *testing.T) {
	repo := newFakePreferenceRepo()
	svc := NewService(repo)

	tenantID := uuid.New()
	userID := uuid.New()

	email := "lawyer@example.com"
	overdueOff := false
	_, err := svc.Update(context.Background(), tenantID, userID, &model.UpdatePreferenceRequest{
		EmailAddress:   &email,
		OverdueEnabled: &overdueOff,
	})
	require.NoError(t, err)

	allowed, err := svc.IsAllowed(context.Background(), tenantID, userID, model.NotificationCategoryDueToday, model.ChannelEmail)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Category off beats channel on.
	allowed, err = svc.IsAllowed(context.Background(), tenantID, userID, model.NotificationCategoryOverdue, model.ChannelEmail)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Channel without a registered target is not deliverable.
	allowed, err = svc.IsAllowed(context.Background(), tenantID, userID, model.NotificationCategoryDueToday, model.ChannelSMS)
	require.NoError(t, err)
	assert.False(t, allowed)

	// In-app is always deliverable for enabled categories.
	allowed, err = svc.IsAllowed(context.Background(), tenantID, userID, model.NotificationCategoryDueToday, model.ChannelInApp)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	repo := newFakePreferenceRepo()
	svc := NewService(repo)

	tenantID := uuid.New()
	userID := uuid.New()

	first, err := svc.GetOrCreate(context.Background(), tenantID, userID)
	require.NoError(t, err)
	assert.Empty(t, first.PushToken)

	_, err = svc.UpdatePushToken(context.Background(), tenantID, userID, "token-123")
	require.NoError(t, err)

	fresh, err := svc.GetOrCreate(context.Background(), tenantID, userID)
	require.NoError(t, err)
	assert.Equal(t, "token-123", fresh.PushToken)
}
