package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lexhub/deadline-api/internal/model"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
)

const notificationColumns = `
	id, tenant_id, recipient_id, category, title, message, status,
	dedup_key, scheduled_for, sent_at, read_at, attempts, last_error,
	deadline_id, case_id, event_id, created_at, updated_at`

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, tenant_id, recipient_id, category, title, message,
			status, dedup_key, scheduled_for, deadline_id, case_id,
			event_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		notification.ID,
		notification.TenantID,
		notification.RecipientID,
		notification.Category,
		notification.Title,
		notification.Message,
		notification.Status,
		notification.DedupKey,
		notification.ScheduledFor,
		notification.DeadlineID,
		notification.CaseID,
		notification.EventID,
		notification.CreatedAt,
		notification.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE id = $1 AND tenant_id = $2
	`
	var n model.Notification
	err := r.db.GetContext(ctx, &n, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("notification", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) FindLiveByDedupKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE tenant_id = $1
		AND dedup_key = $2
		AND status != 'failed'
		ORDER BY created_at DESC
		LIMIT 1
	`
	var n model.Notification
	err := r.db.GetContext(ctx, &n, query, tenantID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification by dedup key: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) ListDue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE tenant_id = $1
		AND status = 'pending'
		AND (scheduled_for IS NULL OR scheduled_for <= $2)
		ORDER BY created_at ASC
		LIMIT $3
	`
	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, tenantID, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list due notifications: %w", err)
	}
	return notifications, nil
}

// Claim takes ownership of a pending notification with a single
// conditional update: the attempt counter is incremented and
// scheduled_for is pushed to nextDue, guarded on the row still being
// pending and due. A concurrent worker loses the race and gets no row
// back, so a notification is attempted at most once per backoff slot.
func (r *notificationRepository) Claim(ctx context.Context, id uuid.UUID, now, nextDue time.Time) (*model.Notification, error) {
	query := `
		UPDATE notifications
		SET attempts = attempts + 1, scheduled_for = $1, updated_at = $2
		WHERE id = $3
		AND status = 'pending'
		AND (scheduled_for IS NULL OR scheduled_for <= $2)
		RETURNING ` + notificationColumns
	var n model.Notification
	err := r.db.GetContext(ctx, &n, query, nextDue, now, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE notifications
		SET status = 'sent', sent_at = $1, last_error = '', updated_at = $1
		WHERE id = $2 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.InvalidTransition("notification is not pending")
	}
	return nil
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	query := `
		UPDATE notifications
		SET status = 'failed', last_error = $1, updated_at = $2
		WHERE id = $3 AND status = 'pending'
	`
	_, err := r.db.ExecContext(ctx, query, reason, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

func (r *notificationRepository) RecordError(ctx context.Context, id uuid.UUID, lastError string, at time.Time) error {
	query := `
		UPDATE notifications
		SET last_error = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, lastError, at, id)
	if err != nil {
		return fmt.Errorf("failed to record notification error: %w", err)
	}
	return nil
}

// SupersedeForDeadline retires every live notification tied to the
// deadline. Retired rows are failed with a fixed reason, which also
// frees their dedup keys for regeneration.
func (r *notificationRepository) SupersedeForDeadline(ctx context.Context, tenantID, deadlineID uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'failed', last_error = 'superseded', updated_at = $1
		WHERE tenant_id = $2
		AND deadline_id = $3
		AND status != 'failed'
	`
	result, err := r.db.ExecContext(ctx, query, at, tenantID, deadlineID)
	if err != nil {
		return 0, fmt.Errorf("failed to supersede deadline notifications: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool, p model.Pagination) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE tenant_id = $1 AND recipient_id = $2
	`
	args := []interface{}{tenantID, userID}

	if unreadOnly {
		query += " AND status IN ('pending', 'sent')"
	}

	query += " ORDER BY created_at DESC"

	if p.PageSize > 0 {
		offset := 0
		if p.Page > 1 {
			offset = (p.Page - 1) * p.PageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, p.PageSize, offset)
	}

	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE tenant_id = $1
		AND recipient_id = $2
		AND status IN ('pending', 'sent')
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, tenantID, userID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead only touches rows already sent: read is reachable from sent
// alone, and only for the addressed recipient.
func (r *notificationRepository) MarkRead(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'read', read_at = $1, updated_at = $1
		WHERE tenant_id = $2
		AND recipient_id = $3
		AND id = ANY($4)
		AND status = 'sent'
	`
	result, err := r.db.ExecContext(ctx, query, at, tenantID, userID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// MarkAllRead is the bulk form of MarkRead: every sent notification
// addressed to the user becomes read in one statement.
func (r *notificationRepository) MarkAllRead(ctx context.Context, tenantID, userID uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'read', read_at = $1, updated_at = $1
		WHERE tenant_id = $2
		AND recipient_id = $3
		AND status = 'sent'
	`
	result, err := r.db.ExecContext(ctx, query, at, tenantID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *notificationRepository) Stats(ctx context.Context, tenantID, userID uuid.UUID) (*model.NotificationStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status IN ('pending', 'sent')) AS unread,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed
		FROM notifications
		WHERE tenant_id = $1 AND recipient_id = $2
	`
	var stats model.NotificationStats
	if err := r.db.GetContext(ctx, &stats, query, tenantID, userID); err != nil {
		return nil, fmt.Errorf("failed to get notification stats: %w", err)
	}
	return &stats, nil
}

func (r *notificationRepository) TenantsWithDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT tenant_id
		FROM notifications
		WHERE status = 'pending'
		AND (scheduled_for IS NULL OR scheduled_for <= $1)
	`
	var tenantIDs []uuid.UUID
	if err := r.db.SelectContext(ctx, &tenantIDs, query, now); err != nil {
		return nil, fmt.Errorf("failed to list tenants with due notifications: %w", err)
	}
	return tenantIDs, nil
}
