package quota

import (
	"time"

	"github.com/google/uuid"
	"github.com/velo/server/internal/module/billing"
)

// State is a read model over the quota counter columns of a profile row.
type State struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	EditsThisMonth  int       `gorm:"column:edits_this_month"`
	EditsMonthStart time.Time `gorm:"column:edits_month_start"`
}

// TableName returns the database table name.
func (State) TableName() string {
	return "user_profiles"
}

// SameMonth reports whether two instants fall in the same calendar
// month in UTC. The database compares with date_trunc('month', ...),
// this is the in-process equivalent for counters read before writing.
func SameMonth(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// EffectiveCount returns the count the current month is entitled to
// see. A counter whose month marker is stale counts as zero, the
// rollover itself only happens on the next increment.
func (s *State) EffectiveCount(now time.Time) int {
	if !SameMonth(s.EditsMonthStart, now) {
		return 0
	}
	return s.EditsThisMonth
}

// Remaining returns how many edits are left under the limit. A
// negative limit means unlimited and always yields UnlimitedEdits.
func Remaining(limit, used int) int {
	if limit < 0 {
		return billing.UnlimitedEdits
	}
	if used >= limit {
		return 0
	}
	return limit - used
}
