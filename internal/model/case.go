package model

import (
	"time"

	"github.com/google/uuid"
)

// LegalCase is the read-only projection of a case consumed by the
// deadline registry. Case records are owned by the case service; this
// system only looks them up.
type LegalCase struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	TenantID          uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Number            string     `json:"number" db:"number"`
	ClientName        string     `json:"client_name" db:"client_name"`
	ResponsibleUserID *uuid.UUID `json:"responsible_user_id" db:"responsible_user_id"`
	Archived          bool       `json:"archived" db:"archived"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// CaseEvent is a procedural development on a case (a filing, ruling,
// phase change). Events can trigger notifications to the case owner.
type CaseEvent struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	CaseID       uuid.UUID  `json:"case_id" db:"case_id"`
	Description  string     `json:"description" db:"description"`
	OccurredAt   time.Time  `json:"occurred_at" db:"occurred_at"`
	RecordedByID *uuid.UUID `json:"recorded_by_id" db:"recorded_by_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
