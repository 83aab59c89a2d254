package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		name          string
		tier          Tier
		wantModel     string
		wantQuality   string
		wantWatermark bool
		wantLimit     int
	}{
		{"free", TierFree, ModelFlashImage, "2k", true, 5},
		{"pro", TierPro, ModelProImage, "2k", false, UnlimitedEdits},
		{"business", TierBusiness, ModelProImage, "4k", false, UnlimitedEdits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ResolvePolicy(tt.tier)
			assert.Equal(t, tt.tier, p.Tier)
			assert.Equal(t, tt.wantModel, p.ModelName)
			assert.Equal(t, tt.wantQuality, p.Quality)
			assert.Equal(t, tt.wantWatermark, p.Watermark)
			assert.Equal(t, tt.wantLimit, p.MonthlyLimit)
		})
	}
}

func TestResolvePolicy_UnknownTierFailsClosed(t *testing.T) {
	p := ResolvePolicy(Tier("platinum"))
	assert.Equal(t, TierFree, p.Tier)
	assert.Equal(t, ModelFlashImage, p.ModelName)
	assert.True(t, p.Watermark)
	assert.Equal(t, FreeMonthlyLimit, p.MonthlyLimit)
	assert.False(t, p.IsUnlimited())
}

func TestTierIsValid(t *testing.T) {
	assert.True(t, TierFree.IsValid())
	assert.True(t, TierPro.IsValid())
	assert.True(t, TierBusiness.IsValid())
	assert.False(t, Tier("platinum").IsValid())
	assert.False(t, Tier("").IsValid())
}

func TestPolicyCosts(t *testing.T) {
	assert.InDelta(t, 0.039, ResolvePolicy(TierFree).CostUSD, 1e-9)
	assert.InDelta(t, 0.12, ResolvePolicy(TierPro).CostUSD, 1e-9)
	assert.InDelta(t, 0.24, ResolvePolicy(TierBusiness).CostUSD, 1e-9)
}
