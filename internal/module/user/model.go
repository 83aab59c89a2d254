package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/velo/server/internal/module/billing"
)

// User represents an account profile. Quota counters live on the same
// row so the edit pipeline can read and increment them atomically.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty" gorm:"column:avatar_url"`

	// Onboarding role selected in the app, drives template suggestions.
	RoleType string `json:"role_type,omitempty" gorm:"column:role_type"`

	// Authentication
	OAuthProvider *string `json:"oauth_provider,omitempty" gorm:"column:oauth_provider"`
	OAuthID       *string `json:"-" gorm:"column:oauth_id"`
	PasswordHash  *string `json:"-" gorm:"column:password_hash"`
	IsAnonymous   bool    `json:"is_anonymous" gorm:"column:is_anonymous;default:false"`

	// Subscription
	SubscriptionTier billing.Tier `json:"subscription_tier" gorm:"column:subscription_tier;default:free"`
	StripeCustomerID *string      `json:"-" gorm:"column:stripe_customer_id;index"`

	// Monthly edit quota counters
	EditsThisMonth  int       `json:"edits_this_month" gorm:"column:edits_this_month;default:0"`
	EditsMonthStart time.Time `json:"edits_month_start" gorm:"column:edits_month_start"`

	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at"`
	DeletedAt *time.Time `json:"-" gorm:"column:deleted_at;index"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "user_profiles"
}

// Tier returns the user's subscription tier, defaulting unknown
// values to free.
func (u *User) Tier() billing.Tier {
	if u.SubscriptionTier.IsValid() {
		return u.SubscriptionTier
	}
	return billing.TierFree
}

// IsEmailUser returns true if the user registered with email/password.
func (u *User) IsEmailUser() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsOAuthUser returns true if the user registered via OAuth.
func (u *User) IsOAuthUser() bool {
	return u.OAuthProvider != nil && *u.OAuthProvider != ""
}
