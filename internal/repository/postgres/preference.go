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

const preferenceColumns = `
	id, tenant_id, user_id, push_enabled, email_enabled, sms_enabled,
	approaching_enabled, due_today_enabled, overdue_enabled,
	case_event_enabled, system_enabled, daily_summary_enabled,
	push_token, email_address, phone_number, created_at, updated_at`

func (r *preferenceRepository) GetByUser(ctx context.Context, tenantID, userID uuid.UUID) (*model.Preference, error) {
	query := `SELECT ` + preferenceColumns + `
		FROM notification_preferences
		WHERE tenant_id = $1 AND user_id = $2
	`
	var pref model.Preference
	err := r.db.GetContext(ctx, &pref, query, tenantID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("preference", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return &pref, nil
}

func (r *preferenceRepository) Create(ctx context.Context, pref *model.Preference) error {
	query := `
		INSERT INTO notification_preferences (
			id, tenant_id, user_id, push_enabled, email_enabled,
			sms_enabled, approaching_enabled, due_today_enabled,
			overdue_enabled, case_event_enabled, system_enabled,
			daily_summary_enabled, push_token, email_address,
			phone_number, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (tenant_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		pref.ID,
		pref.TenantID,
		pref.UserID,
		pref.PushEnabled,
		pref.EmailEnabled,
		pref.SMSEnabled,
		pref.ApproachingEnabled,
		pref.DueTodayEnabled,
		pref.OverdueEnabled,
		pref.CaseEventEnabled,
		pref.SystemEnabled,
		pref.DailySummaryEnabled,
		pref.PushToken,
		pref.EmailAddress,
		pref.PhoneNumber,
		pref.CreatedAt,
		pref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create preference: %w", err)
	}
	return nil
}

func (r *preferenceRepository) Update(ctx context.Context, pref *model.Preference) error {
	query := `
		UPDATE notification_preferences
		SET push_enabled = $1, email_enabled = $2, sms_enabled = $3,
			approaching_enabled = $4, due_today_enabled = $5,
			overdue_enabled = $6, case_event_enabled = $7,
			system_enabled = $8, daily_summary_enabled = $9,
			push_token = $10, email_address = $11,
			phone_number = $12, updated_at = $13
		WHERE id = $14 AND tenant_id = $15
	`
	pref.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		pref.PushEnabled,
		pref.EmailEnabled,
		pref.SMSEnabled,
		pref.ApproachingEnabled,
		pref.DueTodayEnabled,
		pref.OverdueEnabled,
		pref.CaseEventEnabled,
		pref.SystemEnabled,
		pref.DailySummaryEnabled,
		pref.PushToken,
		pref.EmailAddress,
		pref.PhoneNumber,
		pref.UpdatedAt,
		pref.ID,
		pref.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update preference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("preference", nil)
	}
	return nil
}
