package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/model"
)

// All repository interfaces in one file
type (
	// TenantRepository reads the tenant registry. Tenants are managed
	// elsewhere; the scan only needs to enumerate active ones.
	TenantRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
		ListActive(ctx context.Context) ([]*model.Tenant, error)
	}

	// CaseRepository is the read-only lookup into the case service's
	// records.
	CaseRepository interface {
		Get(ctx context.Context, tenantID, id uuid.UUID) (*model.LegalCase, error)
		GetEvent(ctx context.Context, tenantID, id uuid.UUID) (*model.CaseEvent, error)
	}

	DeadlineRepository interface {
		Create(ctx context.Context, deadline *model.Deadline) error

		// Get distinguishes a true miss (ErrNotFound) from a row that
		// exists under another tenant (ErrTenantIsolation).
		Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Deadline, error)

		// Update writes the record guarded on the updated_at the caller
		// loaded it with. A concurrent writer in between fails the
		// update with ErrInvalidTransition instead of silently losing it.
		Update(ctx context.Context, deadline *model.Deadline) error

		// ListOpen returns open deadlines due on or before dueBefore,
		// so the scan never walks deadlines beyond its horizon.
		ListOpen(ctx context.Context, tenantID uuid.UUID, dueBefore time.Time) ([]*model.Deadline, error)
		ListPending(ctx context.Context, tenantID uuid.UUID, dueBefore time.Time) ([]*model.Deadline, error)
		ListOverdue(ctx context.Context, tenantID uuid.UUID, today time.Time) ([]*model.Deadline, error)
		ListByCase(ctx context.Context, tenantID, caseID uuid.UUID) ([]*model.Deadline, error)
		SetLastAlertTier(ctx context.Context, tenantID, id uuid.UUID, tier string) error
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Notification, error)

		// FindLiveByDedupKey returns the non-failed notification for the
		// key, or nil when none exists.
		FindLiveByDedupKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.Notification, error)

		// ListDue returns up to limit pending notifications whose
		// scheduled_for is null or has passed, oldest first.
		ListDue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*model.Notification, error)

		// Claim atomically takes ownership of a pending, due
		// notification: it increments the attempt counter and pushes
		// scheduled_for to nextDue in a single conditional update.
		// Returns nil when another worker already claimed the row.
		Claim(ctx context.Context, id uuid.UUID, now, nextDue time.Time) (*model.Notification, error)

		MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
		RecordError(ctx context.Context, id uuid.UUID, lastError string, at time.Time) error

		// SupersedeForDeadline retires every live notification for the
		// deadline, so a rescheduled deadline can alert again at tiers
		// it already used. Returns the number of rows retired.
		SupersedeForDeadline(ctx context.Context, tenantID, deadlineID uuid.UUID, at time.Time) (int64, error)

		ListForUser(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool, p model.Pagination) ([]*model.Notification, error)
		CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int, error)
		MarkRead(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error)
		MarkAllRead(ctx context.Context, tenantID, userID uuid.UUID, at time.Time) (int64, error)
		Stats(ctx context.Context, tenantID, userID uuid.UUID) (*model.NotificationStats, error)

		// TenantsWithDue lists tenants that currently have deliverable
		// pending notifications, so the sweep can skip idle tenants.
		TenantsWithDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	}

	PreferenceRepository interface {
		GetByUser(ctx context.Context, tenantID, userID uuid.UUID) (*model.Preference, error)
		Create(ctx context.Context, pref *model.Preference) error
		Update(ctx context.Context, pref *model.Preference) error
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, tenantID uuid.UUID, entityType string, p model.Pagination) ([]*model.AuditLog, error)
	}
)
