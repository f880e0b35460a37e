package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Tenant is an isolated organizational unit (a law office). Every
// record in the system is partitioned by tenant id; no operation may
// return rows across tenants.
type Tenant struct {
	ID     uuid.UUID `json:"id" db:"id"`
	Name   string    `json:"name" db:"name"`
	Active bool      `json:"active" db:"active"`

	// AlertThresholds is the ordered days-before-due list the urgency
	// classifier matches against, e.g. [7,3,1,0].
	AlertThresholds pq.Int64Array `json:"alert_thresholds" db:"alert_thresholds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Thresholds returns the configured thresholds as ints, falling back
// to the default ladder when none are configured.
func (t *Tenant) Thresholds() []int {
	if len(t.AlertThresholds) == 0 {
		return []int{7, 3, 1, 0}
	}
	out := make([]int, len(t.AlertThresholds))
	for i, v := range t.AlertThresholds {
		out[i] = int(v)
	}
	return out
}
