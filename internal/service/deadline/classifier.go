package deadline

import (
	"sort"
	"time"

	"github.com/lexhub/deadline-api/internal/model"
)

// Classify determines which alert tier applies to a deadline today.
// thresholds is the tenant's ordered days-before-due ladder, e.g.
// [7,3,1,0]. Only the tier matching the current day is returned; past
// tiers are not replayed. Pure function: no storage, no clock.
//
// Rules, by days remaining until dueDate:
//   - negative       -> overdue
//   - zero           -> due today (threshold 0 need not be configured)
//   - matches an n>0 threshold exactly -> upcoming at n days
//   - otherwise      -> none
func Classify(dueDate, today time.Time, thresholds []int) model.Tier {
	days := daysBetween(today, dueDate)

	if days < 0 {
		return model.Tier{Kind: model.TierOverdue}
	}
	if days == 0 {
		return model.Tier{Kind: model.TierDueToday}
	}

	// Match the largest threshold first so a ladder like [7,3,1] maps
	// each day to exactly one tier.
	sorted := make([]int, 0, len(thresholds))
	for _, t := range thresholds {
		if t > 0 {
			sorted = append(sorted, t)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	for _, t := range sorted {
		if days == t {
			return model.Tier{Kind: model.TierUpcoming, Days: t}
		}
	}

	return model.Tier{Kind: model.TierNone}
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
