package billing

// TierPolicy describes how a subscription tier maps onto model selection,
// output quality, cost and quota.
type TierPolicy struct {
	Tier         Tier
	ModelName    string
	Quality      string
	CostUSD      float64
	Watermark    bool
	MonthlyLimit int // UnlimitedEdits for uncapped tiers
}

// IsUnlimited returns true if the policy has no monthly cap.
func (p TierPolicy) IsUnlimited() bool {
	return p.MonthlyLimit == UnlimitedEdits
}

// FreeMonthlyLimit is the number of edits a free user gets per calendar month.
const FreeMonthlyLimit = 5

// Model identifiers of the external image API.
const (
	ModelFlashImage = "gemini-2.5-flash-image"
	ModelProImage   = "gemini-3-pro-image"
)

var tierPolicies = map[Tier]TierPolicy{
	TierFree: {
		Tier:         TierFree,
		ModelName:    ModelFlashImage,
		Quality:      "2k",
		CostUSD:      0.039,
		Watermark:    true,
		MonthlyLimit: FreeMonthlyLimit,
	},
	TierPro: {
		Tier:         TierPro,
		ModelName:    ModelProImage,
		Quality:      "2k",
		CostUSD:      0.12,
		Watermark:    false,
		MonthlyLimit: UnlimitedEdits,
	},
	TierBusiness: {
		Tier:         TierBusiness,
		ModelName:    ModelProImage,
		Quality:      "4k",
		CostUSD:      0.24,
		Watermark:    false,
		MonthlyLimit: UnlimitedEdits,
	},
}

// ResolvePolicy maps a tier onto its policy. Unrecognized tiers resolve to
// the free tier: a tier value introduced server-side before this binary was
// upgraded must fail closed to the most restrictive policy, never crash or
// grant paid capabilities.
func ResolvePolicy(tier Tier) TierPolicy {
	if p, ok := tierPolicies[tier]; ok {
		return p
	}
	return tierPolicies[TierFree]
}
