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

func (r *tenantRepository) Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	query := `
		SELECT id, name, active, alert_thresholds, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tenant", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}

func (r *tenantRepository) ListActive(ctx context.Context) ([]*model.Tenant, error) {
	query := `
		SELECT id, name, active, alert_thresholds, created_at, updated_at
		FROM tenants
		WHERE active = TRUE
		ORDER BY created_at ASC
	`
	var tenants []*model.Tenant
	if err := r.db.SelectContext(ctx, &tenants, query); err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}
	return tenants, nil
}
