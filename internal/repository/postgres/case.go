package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/model"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
)

func (r *caseRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.LegalCase, error) {
	query := `
		SELECT id, tenant_id, number, client_name, responsible_user_id,
			   archived, created_at, updated_at
		FROM cases
		WHERE id = $1 AND tenant_id = $2
	`
	var c model.LegalCase
	err := r.db.GetContext(ctx, &c, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("case", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

func (r *caseRepository) GetEvent(ctx context.Context, tenantID, id uuid.UUID) (*model.CaseEvent, error) {
	query := `
		SELECT id, tenant_id, case_id, description, occurred_at,
			   recorded_by_id, created_at
		FROM case_events
		WHERE id = $1 AND tenant_id = $2
	`
	var e model.CaseEvent
	err := r.db.GetContext(ctx, &e, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("case event", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case event: %w", err)
	}
	return &e, nil
}
