package model

import "fmt"

type TierKind string

const (
	TierNone     TierKind = "none"
	TierUpcoming TierKind = "upcoming"
	TierDueToday TierKind = "due_today"
	TierOverdue  TierKind = "overdue"
)

// Tier is the urgency classification of a deadline on a given day.
// Upcoming tiers carry the threshold they matched (days before due).
type Tier struct {
	Kind TierKind `json:"kind"`
	Days int      `json:"days,omitempty"`
}

// Key is the stable identifier used in dedup keys and on the deadline's
// last-alert marker: "upcoming_3", "due_today", "overdue".
func (t Tier) Key() string {
	if t.Kind == TierUpcoming {
		return fmt.Sprintf("%s_%d", TierUpcoming, t.Days)
	}
	return string(t.Kind)
}

// Category maps the tier to the notification category it produces.
func (t Tier) Category() NotificationCategory {
	switch t.Kind {
	case TierDueToday:
		return NotificationCategoryDueToday
	case TierOverdue:
		return NotificationCategoryOverdue
	default:
		return NotificationCategoryApproaching
	}
}
