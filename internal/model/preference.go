package model

import (
	"time"

	"github.com/google/uuid"
)

// Preference holds per-user delivery settings. Created lazily with
// defaults the first time it is needed: push and email enabled, sms
// disabled, every category enabled. The in-app channel is always
// implicitly available and has no toggle.
type Preference struct {
	ID       uuid.UUID `json:"id" db:"id"`
	TenantID uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`

	PushEnabled  bool `json:"push_enabled" db:"push_enabled"`
	EmailEnabled bool `json:"email_enabled" db:"email_enabled"`
	SMSEnabled   bool `json:"sms_enabled" db:"sms_enabled"`

	ApproachingEnabled  bool `json:"approaching_enabled" db:"approaching_enabled"`
	DueTodayEnabled     bool `json:"due_today_enabled" db:"due_today_enabled"`
	OverdueEnabled      bool `json:"overdue_enabled" db:"overdue_enabled"`
	CaseEventEnabled    bool `json:"case_event_enabled" db:"case_event_enabled"`
	SystemEnabled       bool `json:"system_enabled" db:"system_enabled"`
	DailySummaryEnabled bool `json:"daily_summary_enabled" db:"daily_summary_enabled"`

	// PushToken is the device token for the push provider.
	PushToken string `json:"push_token,omitempty" db:"push_token"`

	// EmailAddress and PhoneNumber are the delivery targets for the
	// email and sms channels.
	EmailAddress string `json:"email_address,omitempty" db:"email_address"`
	PhoneNumber  string `json:"phone_number,omitempty" db:"phone_number"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewDefaultPreference builds the documented defaults for a user.
func NewDefaultPreference(tenantID, userID uuid.UUID) *Preference {
	return &Preference{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		UserID:              userID,
		PushEnabled:         true,
		EmailEnabled:        true,
		SMSEnabled:          false,
		ApproachingEnabled:  true,
		DueTodayEnabled:     true,
		OverdueEnabled:      true,
		CaseEventEnabled:    true,
		SystemEnabled:       true,
		DailySummaryEnabled: true,
	}
}

// ChannelEnabled reports whether the channel toggle is on. In-app is
// always available.
func (p *Preference) ChannelEnabled(channel NotificationChannel) bool {
	switch channel {
	case ChannelPush:
		return p.PushEnabled && p.PushToken != ""
	case ChannelEmail:
		return p.EmailEnabled && p.EmailAddress != ""
	case ChannelSMS:
		return p.SMSEnabled && p.PhoneNumber != ""
	case ChannelInApp:
		return true
	}
	return false
}

// CategoryEnabled reports whether the category toggle is on.
func (p *Preference) CategoryEnabled(category NotificationCategory) bool {
	switch category {
	case NotificationCategoryApproaching:
		return p.ApproachingEnabled
	case NotificationCategoryDueToday:
		return p.DueTodayEnabled
	case NotificationCategoryOverdue:
		return p.OverdueEnabled
	case NotificationCategoryCaseEvent:
		return p.CaseEventEnabled
	case NotificationCategorySystem:
		return p.SystemEnabled
	case NotificationCategoryDailySummary:
		return p.DailySummaryEnabled
	}
	return false
}

type UpdatePreferenceRequest struct {
	PushEnabled  *bool `json:"push_enabled"`
	EmailEnabled *bool `json:"email_enabled"`
	SMSEnabled   *bool `json:"sms_enabled"`

	ApproachingEnabled  *bool `json:"approaching_enabled"`
	DueTodayEnabled     *bool `json:"due_today_enabled"`
	OverdueEnabled      *bool `json:"overdue_enabled"`
	CaseEventEnabled    *bool `json:"case_event_enabled"`
	SystemEnabled       *bool `json:"system_enabled"`
	DailySummaryEnabled *bool `json:"daily_summary_enabled"`

	EmailAddress *string `json:"email_address" binding:"omitempty,email"`
	PhoneNumber  *string `json:"phone_number" binding:"omitempty,e164"`
}

type UpdatePushTokenRequest struct {
	PushToken string `json:"push_token" binding:"required,max=500"`
}
