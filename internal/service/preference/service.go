package preference

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/repository"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Service resolves per-user delivery preferences. Records are created
// lazily with documented defaults the first time they are needed, so
// every user always resolves to a usable preference set.
type Service struct {
	repo  repository.PreferenceRepository
	cache *gocache.Cache
	now   func() time.Time
}

func NewService(repo repository.PreferenceRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, cacheCleanup),
		now:   time.Now,
	}
}

// GetOrCreate returns the user's preference, creating the default row
// on first access. The insert is ON CONFLICT DO NOTHING, so two
// concurrent first accesses converge on one row.
func (s *Service) GetOrCreate(ctx context.Context, tenantID, userID uuid.UUID) (*model.Preference, error) {
	if cached, ok := s.cache.Get(cacheKey(tenantID, userID)); ok {
		return cached.(*model.Preference), nil
	}

	pref, err := s.repo.GetByUser(ctx, tenantID, userID)
	if err == nil {
		s.cache.Set(cacheKey(tenantID, userID), pref, gocache.DefaultExpiration)
		return pref, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	pref = model.NewDefaultPreference(tenantID, userID)
	now := s.now()
	pref.CreatedAt = now
	pref.UpdatedAt = now

	if err := s.repo.Create(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to create default preference: %w", err)
	}

	// Re-read in case a concurrent create won the conflict.
	pref, err = s.repo.GetByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey(tenantID, userID), pref, gocache.DefaultExpiration)
	return pref, nil
}

// IsAllowed combines the category and channel toggles; both must be
// enabled for delivery over that channel.
func (s *Service) IsAllowed(ctx context.Context, tenantID, userID uuid.UUID, category model.NotificationCategory, channel model.NotificationChannel) (bool, error) {
	pref, err := s.GetOrCreate(ctx, tenantID, userID)
	if err != nil {
		return false, err
	}
	return pref.CategoryEnabled(category) && pref.ChannelEnabled(channel), nil
}

func (s *Service) Update(ctx context.Context, tenantID, userID uuid.UUID, req *model.UpdatePreferenceRequest) (*model.Preference, error) {
	pref, err := s.GetOrCreate(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if req.PushEnabled != nil {
		pref.PushEnabled = *req.PushEnabled
	}
	if req.EmailEnabled != nil {
		pref.EmailEnabled = *req.EmailEnabled
	}
	if req.SMSEnabled != nil {
		pref.SMSEnabled = *req.SMSEnabled
	}
	if req.ApproachingEnabled != nil {
		pref.ApproachingEnabled = *req.ApproachingEnabled
	}
	if req.DueTodayEnabled != nil {
		pref.DueTodayEnabled = *req.DueTodayEnabled
	}
	if req.OverdueEnabled != nil {
		pref.OverdueEnabled = *req.OverdueEnabled
	}
	if req.CaseEventEnabled != nil {
		pref.CaseEventEnabled = *req.CaseEventEnabled
	}
	if req.SystemEnabled != nil {
		pref.SystemEnabled = *req.SystemEnabled
	}
	if req.DailySummaryEnabled != nil {
		pref.DailySummaryEnabled = *req.DailySummaryEnabled
	}
	if req.EmailAddress != nil {
		pref.EmailAddress = *req.EmailAddress
	}
	if req.PhoneNumber != nil {
		pref.PhoneNumber = *req.PhoneNumber
	}

	if err := s.repo.Update(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to update preference: %w", err)
	}

	s.cache.Delete(cacheKey(tenantID, userID))
	return pref, nil
}

// UpdatePushToken registers the device token used by the push channel.
func (s *Service) UpdatePushToken(ctx context.Context, tenantID, userID uuid.UUID, token string) (*model.Preference, error) {
	pref, err := s.GetOrCreate(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	pref.PushToken = token
	if err := s.repo.Update(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to update push token: %w", err)
	}

	s.cache.Delete(cacheKey(tenantID, userID))
	return pref, nil
}

func cacheKey(tenantID, userID uuid.UUID) string {
	return tenantID.String() + ":" + userID.String()
}
