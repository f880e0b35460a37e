package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type LogOptions struct {
	Changes  interface{}
	Metadata interface{}
}

// Log creates an audit log entry. Audit failures are returned but
// callers generally only log them; auditing must not block the
// business operation that already succeeded.
func (s *Service) Log(ctx context.Context, tenantID, userID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) error {
	var changes, metadata json.RawMessage
	var err error

	if opts != nil {
		if opts.Changes != nil {
			changes, err = json.Marshal(opts.Changes)
			if err != nil {
				return err
			}
		}
		if opts.Metadata != nil {
			metadata, err = json.Marshal(opts.Metadata)
			if err != nil {
				return err
			}
		}
	}

	log := &model.AuditLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	}

	return s.repo.Create(ctx, log)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, entityType string, p model.Pagination) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, tenantID, entityType, p)
}
