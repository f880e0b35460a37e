package model

import (
	"time"

	"github.com/google/uuid"
)

type DeadlineStatus string

const (
	DeadlineStatusPending    DeadlineStatus = "pending"
	DeadlineStatusInProgress DeadlineStatus = "in_progress"
	DeadlineStatusFulfilled  DeadlineStatus = "fulfilled"
	DeadlineStatusCancelled  DeadlineStatus = "cancelled"
)

// IsTerminal reports whether no further transition is permitted.
func (s DeadlineStatus) IsTerminal() bool {
	return s == DeadlineStatusFulfilled || s == DeadlineStatusCancelled
}

type DeadlineCategory string

const (
	DeadlineCategoryResponse       DeadlineCategory = "response"
	DeadlineCategoryAppeal         DeadlineCategory = "appeal"
	DeadlineCategoryMotion         DeadlineCategory = "motion"
	DeadlineCategoryExpertReview   DeadlineCategory = "expert_review"
	DeadlineCategoryHearing        DeadlineCategory = "hearing"
	DeadlineCategoryCompliance     DeadlineCategory = "judgment_compliance"
	DeadlineCategoryDocumentFiling DeadlineCategory = "document_filing"
	DeadlineCategoryOther          DeadlineCategory = "other"
)

// DefaultUrgencyWindow is the days-remaining window below which a
// pending deadline counts as urgent.
const DefaultUrgencyWindow = 3

// Deadline is a time-bound legal obligation tied to a case. Missing
// one can cause irreparable harm to the client, so records are never
// physically deleted and every mutation is audited.
type Deadline struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	TenantID    uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	CaseID      uuid.UUID        `json:"case_id" db:"case_id"`
	Category    DeadlineCategory `json:"category" db:"category"`
	Description string           `json:"description" db:"description"`
	DueDate     time.Time        `json:"due_date" db:"due_date"`
	StartDate   *time.Time       `json:"start_date,omitempty" db:"start_date"`
	Status      DeadlineStatus   `json:"status" db:"status"`

	// ResponsibleUserID receives deadline alerts. Falls back to the
	// case's responsible user when unset.
	ResponsibleUserID *uuid.UUID `json:"responsible_user_id,omitempty" db:"responsible_user_id"`

	FulfilledByID *uuid.UUID `json:"fulfilled_by_id,omitempty" db:"fulfilled_by_id"`
	FulfilledAt   *time.Time `json:"fulfilled_at,omitempty" db:"fulfilled_at"`
	CancelReason  *string    `json:"cancel_reason,omitempty" db:"cancel_reason"`

	// LastAlertTier records the tier an alert was last generated for,
	// so a re-run of the daily scan stays idempotent.
	LastAlertTier string `json:"last_alert_tier,omitempty" db:"last_alert_tier"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DaysRemaining is the number of whole days between today and the due
// date. Negative once the due date has passed.
func (d *Deadline) DaysRemaining(today time.Time) int {
	due := truncateToDay(d.DueDate)
	now := truncateToDay(today)
	return int(due.Sub(now).Hours() / 24)
}

// IsUrgent holds iff the deadline is open and due within the window.
func (d *Deadline) IsUrgent(today time.Time, window int) bool {
	if d.Status.IsTerminal() {
		return false
	}
	days := d.DaysRemaining(today)
	return days > 0 && days <= window
}

// IsOverdue is a derived predicate: the due date has passed and the
// deadline is still pending. There is no stored "missed" status.
func (d *Deadline) IsOverdue(today time.Time) bool {
	return d.DaysRemaining(today) < 0 && d.Status == DeadlineStatusPending
}

func truncateToDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

type CreateDeadlineRequest struct {
	CaseID      uuid.UUID        `json:"case_id" binding:"required"`
	Category    DeadlineCategory `json:"category" binding:"required,deadline_category"`
	Description string           `json:"description" binding:"required,max=500"`
	DueDate     time.Time        `json:"due_date" binding:"required"`
	StartDate   *time.Time       `json:"start_date"`
	ResponsibleUserID *uuid.UUID `json:"responsible_user_id"`
}

type UpdateDeadlineRequest struct {
	Category    *DeadlineCategory `json:"category" binding:"omitempty,deadline_category"`
	Description *string           `json:"description" binding:"omitempty,max=500"`
	DueDate     *time.Time        `json:"due_date"`
	StartDate   *time.Time        `json:"start_date"`
	ResponsibleUserID *uuid.UUID  `json:"responsible_user_id"`
}

type CancelDeadlineRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type DeadlineFilters struct {
	CaseID      uuid.UUID
	Status      DeadlineStatus
	DueBefore   time.Time
	DueAfter    time.Time
}
