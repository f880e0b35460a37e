package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/model"
)

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, tenant_id, user_id, action, entity_type, entity_id,
			changes, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.TenantID,
		log.UserID,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.Changes,
		log.Metadata,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, tenantID uuid.UUID, entityType string, p model.Pagination) ([]*model.AuditLog, error) {
	query := `
		SELECT id, tenant_id, user_id, action, entity_type, entity_id,
			   changes, metadata, created_at
		FROM audit_logs
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID}

	if entityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, entityType)
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

	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
