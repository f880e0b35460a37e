package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records every mutating operation on deadlines and
// notifications for later review.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	TenantID   uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty" db:"changes"`
	Metadata   json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
