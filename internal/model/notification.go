package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusRead    NotificationStatus = "read"
	NotificationStatusFailed  NotificationStatus = "failed"
)

type NotificationCategory string

const (
	NotificationCategoryApproaching NotificationCategory = "deadline_approaching"
	NotificationCategoryDueToday    NotificationCategory = "deadline_due_today"
	NotificationCategoryOverdue     NotificationCategory = "deadline_overdue"
	NotificationCategoryCaseEvent   NotificationCategory = "case_event"
	NotificationCategorySystem      NotificationCategory = "system"

	// NotificationCategoryDailySummary is the once-a-day digest of a
	// user's open deadline counts.
	NotificationCategoryDailySummary NotificationCategory = "daily_summary"
)

// IsDeadlineAlert reports whether the category originates from the
// deadline scan. These are re-checked against the parent deadline
// before any delivery attempt.
func (c NotificationCategory) IsDeadlineAlert() bool {
	switch c {
	case NotificationCategoryApproaching, NotificationCategoryDueToday, NotificationCategoryOverdue:
		return true
	}
	return false
}

type NotificationChannel string

const (
	ChannelPush  NotificationChannel = "push"
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelInApp NotificationChannel = "in_app"
)

// Notification is a persisted alert. It is created once by the
// factory, mutated only by the dispatch engine (status and attempt
// fields) and by the read-tracking operation (status to read).
type Notification struct {
	ID          uuid.UUID            `json:"id" db:"id"`
	TenantID    uuid.UUID            `json:"tenant_id" db:"tenant_id"`
	RecipientID uuid.UUID            `json:"recipient_id" db:"recipient_id"`
	Category    NotificationCategory `json:"category" db:"category"`
	Title       string               `json:"title" db:"title"`
	Message     string               `json:"message" db:"message"`
	Status      NotificationStatus   `json:"status" db:"status"`

	// DedupKey enforces at most one live notification per trigger:
	// deadline id + tier for scan alerts, event id + category for case
	// events.
	DedupKey string `json:"-" db:"dedup_key"`

	ScheduledFor *time.Time `json:"scheduled_for,omitempty" db:"scheduled_for"`
	SentAt       *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	ReadAt       *time.Time `json:"read_at,omitempty" db:"read_at"`

	// Attempts is monotonic; the claiming update increments it once
	// per sweep regardless of how many channels were tried.
	Attempts  int    `json:"attempts" db:"attempts"`
	LastError string `json:"last_error,omitempty" db:"last_error"`

	DeadlineID *uuid.UUID `json:"deadline_id,omitempty" db:"deadline_id"`
	CaseID     *uuid.UUID `json:"case_id,omitempty" db:"case_id"`
	EventID    *uuid.UUID `json:"event_id,omitempty" db:"event_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DeadlineDedupKey builds the dedup key for a scan-generated alert.
func DeadlineDedupKey(deadlineID uuid.UUID, tier Tier) string {
	return fmt.Sprintf("deadline:%s:%s", deadlineID, tier.Key())
}

// EventDedupKey builds the dedup key for a case-event notification.
func EventDedupKey(eventID uuid.UUID, category NotificationCategory) string {
	return fmt.Sprintf("event:%s:%s", eventID, category)
}

// DailySummaryDedupKey builds the dedup key for a daily digest: one
// live summary per user per calendar day.
func DailySummaryDedupKey(userID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("summary:%s:%s", userID, day.Format("2006-01-02"))
}

// DeadlineDigest is one user's open-deadline counts for the daily
// summary notification.
type DeadlineDigest struct {
	DueToday int
	DueSoon  int
	Overdue  int
}

// Empty reports whether the digest has nothing worth sending.
func (d DeadlineDigest) Empty() bool {
	return d.DueToday == 0 && d.DueSoon == 0 && d.Overdue == 0
}

type MarkReadRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

type NotificationStats struct {
	Total   int `json:"total" db:"total"`
	Unread  int `json:"unread" db:"unread"`
	Pending int `json:"pending" db:"pending"`
	Failed  int `json:"failed" db:"failed"`
}
