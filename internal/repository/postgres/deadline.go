package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/model"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
)

const deadlineColumns = `
	id, tenant_id, case_id, category, description, due_date, start_date,
	status, responsible_user_id, fulfilled_by_id, fulfilled_at,
	cancel_reason, last_alert_tier, created_at, updated_at`

func (r *deadlineRepository) Create(ctx context.Context, deadline *model.Deadline) error {
	query := `
		INSERT INTO deadlines (
			id, tenant_id, case_id, category, description, due_date,
			start_date, status, responsible_user_id, last_alert_tier,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		deadline.ID,
		deadline.TenantID,
		deadline.CaseID,
		deadline.Category,
		deadline.Description,
		deadline.DueDate,
		deadline.StartDate,
		deadline.Status,
		deadline.ResponsibleUserID,
		deadline.LastAlertTier,
		deadline.CreatedAt,
		deadline.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deadline: %w", err)
	}
	return nil
}

func (r *deadlineRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Deadline, error) {
	query := `SELECT ` + deadlineColumns + `
		FROM deadlines
		WHERE id = $1 AND tenant_id = $2
	`
	var deadline model.Deadline
	err := r.db.GetContext(ctx, &deadline, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		// A miss can be a genuinely unknown id or a row owned by
		// another tenant. The latter is a cross-tenant access attempt
		// and must surface as such, never as a plain 404.
		var exists bool
		if probeErr := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM deadlines WHERE id = $1)`, id); probeErr != nil {
			return nil, fmt.Errorf("failed to get deadline: %w", probeErr)
		}
		if exists {
			return nil, apperrors.TenantIsolation("deadline")
		}
		return nil, apperrors.NotFound("deadline", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deadline: %w", err)
	}
	return &deadline, nil
}

// Update is guarded on the updated_at the caller loaded the record
// with, the same conditional-update idiom the notification claim uses.
// Two racing writers cannot both succeed; the loser must reload.
func (r *deadlineRepository) Update(ctx context.Context, deadline *model.Deadline) error {
	query := `
		UPDATE deadlines
		SET category = $1, description = $2, due_date = $3, start_date = $4,
			status = $5, responsible_user_id = $6, fulfilled_by_id = $7,
			fulfilled_at = $8, cancel_reason = $9, last_alert_tier = $10,
			updated_at = $11
		WHERE id = $12 AND tenant_id = $13 AND updated_at = $14
	`
	loadedAt := deadline.UpdatedAt
	deadline.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		deadline.Category,
		deadline.Description,
		deadline.DueDate,
		deadline.StartDate,
		deadline.Status,
		deadline.ResponsibleUserID,
		deadline.FulfilledByID,
		deadline.FulfilledAt,
		deadline.CancelReason,
		deadline.LastAlertTier,
		deadline.UpdatedAt,
		deadline.ID,
		deadline.TenantID,
		loadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update deadline: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.InvalidTransition("deadline was modified concurrently")
	}
	return nil
}

func (r *deadlineRepository) ListOpen(ctx context.Context, tenantID uuid.UUID, dueBefore time.Time) ([]*model.Deadline, error) {
	query := `SELECT ` + deadlineColumns + `
		FROM deadlines
		WHERE tenant_id = $1
		AND status IN ('pending', 'in_progress')
		AND due_date <= $2
		ORDER BY due_date ASC
	`
	var deadlines []*model.Deadline
	if err := r.db.SelectContext(ctx, &deadlines, query, tenantID, dueBefore); err != nil {
		return nil, fmt.Errorf("failed to list open deadlines: %w", err)
	}
	return deadlines, nil
}

func (r *deadlineRepository) ListPending(ctx context.Context, tenantID uuid.UUID, dueBefore time.Time) ([]*model.Deadline, error) {
	query := `SELECT ` + deadlineColumns + `
		FROM deadlines
		WHERE tenant_id = $1
		AND status IN ('pending', 'in_progress')
		AND due_date <= $2
		ORDER BY due_date ASC
	`
	var deadlines []*model.Deadline
	if err := r.db.SelectContext(ctx, &deadlines, query, tenantID, dueBefore); err != nil {
		return nil, fmt.Errorf("failed to list pending deadlines: %w", err)
	}
	return deadlines, nil
}

func (r *deadlineRepository) ListOverdue(ctx context.Context, tenantID uuid.UUID, today time.Time) ([]*model.Deadline, error) {
	query := `SELECT ` + deadlineColumns + `
		FROM deadlines
		WHERE tenant_id = $1
		AND status = 'pending'
		AND due_date < $2
		ORDER BY due_date ASC
	`
	var deadlines []*model.Deadline
	if err := r.db.SelectContext(ctx, &deadlines, query, tenantID, today); err != nil {
		return nil, fmt.Errorf("failed to list overdue deadlines: %w", err)
	}
	return deadlines, nil
}

func (r *deadlineRepository) ListByCase(ctx context.Context, tenantID, caseID uuid.UUID) ([]*model.Deadline, error) {
	query := `SELECT ` + deadlineColumns + `
		FROM deadlines
		WHERE tenant_id = $1 AND case_id = $2
		ORDER BY due_date ASC
	`
	var deadlines []*model.Deadline
	if err := r.db.SelectContext(ctx, &deadlines, query, tenantID, caseID); err != nil {
		return nil, fmt.Errorf("failed to list case deadlines: %w", err)
	}
	return deadlines, nil
}

func (r *deadlineRepository) SetLastAlertTier(ctx context.Context, tenantID, id uuid.UUID, tier string) error {
	query := `
		UPDATE deadlines
		SET last_alert_tier = $1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4
	`
	_, err := r.db.ExecContext(ctx, query, tier, time.Now(), id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to set last alert tier: %w", err)
	}
	return nil
}
