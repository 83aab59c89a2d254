package billing

import (
	"time"

	"github.com/lib/pq"
)

// Tier represents a subscription tier.
type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// IsValid checks if the tier is a known tier value.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierPro, TierBusiness:
		return true
	default:
		return false
	}
}

// UnlimitedEdits is the sentinel limit value for uncapped tiers.
const UnlimitedEdits = -1

// Plan represents a purchasable subscription plan.
type Plan struct {
	ID            string         `json:"id" gorm:"primaryKey"`
	Tier          Tier           `json:"tier" gorm:"not null"`
	Name          string         `json:"name" gorm:"not null"`
	Description   string         `json:"description"`
	PriceUSD      int64          `json:"price_usd"` // In cents
	StripePriceID string         `json:"-"`
	MonthlyEdits  int            `json:"monthly_edits"` // -1 for unlimited
	BrandKits     int            `json:"brand_kits"`
	Features      pq.StringArray `json:"features" gorm:"type:text[]"`
	Active        bool           `json:"active" gorm:"default:true"`
	DisplayOrder  int            `json:"display_order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Plan) TableName() string {
	return "plans"
}

// IsUnlimited returns true if the plan has unlimited monthly edits.
func (p *Plan) IsUnlimited() bool {
	return p.MonthlyEdits == UnlimitedEdits
}
