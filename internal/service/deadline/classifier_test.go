package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lexhub/deadline-api/internal/model"
)

func TestClassify(t *testing.T) {
	today := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	thresholds := []int{7, 3, 1, 0}

	day := func(offset int) time.Time {
		return today.AddDate(0, 0, offset)
	}

	tests := []struct {
		name    string
		dueDate time.Time
		want    model.Tier
	}{
		{"due a week out", day(7), model.Tier{Kind: model.TierUpcoming, Days: 7}},
		{"due in three days", day(3), model.Tier{Kind: model.TierUpcoming, Days: 3}},
		{"due tomorrow", day(1), model.Tier{Kind: model.TierUpcoming, Days: 1}},
		{"due today", day(0), model.Tier{Kind: model.TierDueToday}},
		{"overdue by one day", day(-1), model.Tier{Kind: model.TierOverdue}},
		{"overdue by a month", day(-30), model.Tier{Kind: model.TierOverdue}},
		{"between thresholds", day(5), model.Tier{Kind: model.TierNone}},
		{"far in the future", day(60), model.Tier{Kind: model.TierNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.dueDate, today, thresholds))
		})
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	due := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)

	got := Classify(due, today, []int{7, 3, 1})
	assert.Equal(t, model.Tier{Kind: model.TierUpcoming, Days: 1}, got)
}

func TestClassifyCustomLadder(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// A tenant with a [14, 5] ladder must not alert at the default
	// thresholds.
	got := Classify(today.AddDate(0, 0, 7), today, []int{14, 5})
	assert.Equal(t, model.TierNone, got.Kind)

	got = Classify(today.AddDate(0, 0, 14), today, []int{14, 5})
	assert.Equal(t, model.Tier{Kind: model.TierUpcoming, Days: 14}, got)
}

func TestClassifyDueTodayWithoutZeroThreshold(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	got := Classify(today, today, []int{7, 3, 1})
	assert.Equal(t, model.TierDueToday, got.Kind)
}
