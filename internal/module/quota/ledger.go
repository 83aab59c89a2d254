package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger tracks per-user monthly edit counts. Reads are advisory, the
// only authoritative mutation is Increment, which rolls the counter
// over to a new month and bumps it in a single statement so concurrent
// edits can never resurrect a stale count.
type Ledger interface {
	// Used returns the effective count for the current month.
	Used(ctx context.Context, userID uuid.UUID) (int, error)

	// HasRemaining reports whether the user is under the limit. A
	// negative limit means unlimited.
	HasRemaining(ctx context.Context, userID uuid.UUID, limit int) (bool, error)

	// Increment atomically bumps the counter, resetting it first if
	// the stored month marker is stale, and returns the new count.
	Increment(ctx context.Context, userID uuid.UUID) (int, error)
}

type ledger struct {
	db *gorm.DB
}

// NewLedger creates a ledger backed by the profile table.
func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) Used(ctx context.Context, userID uuid.UUID) (int, error) {
	var state State
	err := l.db.WithContext(ctx).
		Select("id", "edits_this_month", "edits_month_start").
		Where("id = ? AND deleted_at IS NULL", userID).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProfileNotFound
		}
		return 0, fmt.Errorf("read quota state: %w", err)
	}
	return state.EffectiveCount(time.Now()), nil
}

func (l *ledger) HasRemaining(ctx context.Context, userID uuid.UUID, limit int) (bool, error) {
	if limit < 0 {
		return true, nil
	}
	used, err := l.Used(ctx, userID)
	if err != nil {
		return false, err
	}
	return used < limit, nil
}

// incrementSQL resets and bumps in one statement. The month comparison
// runs inside the UPDATE so two concurrent edits at a month boundary
// serialize on the row lock instead of both writing count 1.
const incrementSQL = `
UPDATE user_profiles
SET edits_this_month = CASE
        WHEN date_trunc('month', edits_month_start) = date_trunc('month', now())
        THEN edits_this_month + 1
        ELSE 1
    END,
    edits_month_start = CASE
        WHEN date_trunc('month', edits_month_start) = date_trunc('month', now())
        THEN edits_month_start
        ELSE now()
    END,
    updated_at = now()
WHERE id = ? AND deleted_at IS NULL
RETURNING edits_this_month`

func (l *ledger) Increment(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	result := l.db.WithContext(ctx).Raw(incrementSQL, userID).Scan(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("increment edit count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrProfileNotFound
	}
	return count, nil
}
