package user

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velo/server/internal/module/billing"
)

func TestUser_ToProfileResponse(t *testing.T) {
	t.Run("free tier reports remaining", func(t *testing.T) {
		u := &User{
			ID:               uuid.New(),
			Email:            "free@example.com",
			SubscriptionTier: billing.TierFree,
			EditsThisMonth:   3,
			EditsMonthStart:  time.Now(),
		}

		resp := u.ToProfileResponse()
		require.NotNil(t, resp.Quota)
		assert.Equal(t, 3, resp.Quota.EditsThisMonth)
		assert.Equal(t, 2, resp.Quota.EditsRemaining)
		assert.False(t, resp.Quota.Unlimited)
	})

	t.Run("stale month counts as zero", func(t *testing.T) {
		u := &User{
			ID:               uuid.New(),
			SubscriptionTier: billing.TierFree,
			EditsThisMonth:   5,
			EditsMonthStart:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		resp := u.ToProfileResponse()
		assert.Equal(t, 0, resp.Quota.EditsThisMonth)
		assert.Equal(t, billing.FreeMonthlyLimit, resp.Quota.EditsRemaining)
	})

	t.Run("pro tier is unlimited", func(t *testing.T) {
		u := &User{
			ID:               uuid.New(),
			SubscriptionTier: billing.TierPro,
			EditsThisMonth:   240,
			EditsMonthStart:  time.Now(),
		}

		resp := u.ToProfileResponse()
		assert.True(t, resp.Quota.Unlimited)
		assert.Equal(t, billing.UnlimitedEdits, resp.Quota.EditsRemaining)
	})
}
