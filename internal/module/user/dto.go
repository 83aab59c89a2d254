package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/velo/server/internal/module/billing"
	"github.com/velo/server/internal/module/quota"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	RoleType string `json:"role_type"`
}

// LoginRequest represents an email/password login request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest represents an OAuth code exchange request.
type GoogleLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest represents a profile update request.
type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	RoleType  *string `json:"role_type,omitempty"`
}

// DeleteAccountRequest represents an account deletion request.
type DeleteAccountRequest struct {
	Password string `json:"password"` // Required for email users
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID               uuid.UUID    `json:"id"`
	Email            string       `json:"email"`
	Name             string       `json:"name"`
	AvatarURL        string       `json:"avatar_url,omitempty"`
	RoleType         string       `json:"role_type,omitempty"`
	Provider         string       `json:"provider"` // oauth provider, "email" or "anonymous"
	IsAnonymous      bool         `json:"is_anonymous"`
	SubscriptionTier billing.Tier `json:"subscription_tier"`
	CreatedAt        time.Time    `json:"created_at"`
}

// ToResponse converts a User to UserResponse.
func (u *User) ToResponse() *UserResponse {
	provider := "email"
	switch {
	case u.IsAnonymous:
		provider = "anonymous"
	case u.OAuthProvider != nil:
		provider = *u.OAuthProvider
	}
	return &UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		AvatarURL:        u.AvatarURL,
		RoleType:         u.RoleType,
		Provider:         provider,
		IsAnonymous:      u.IsAnonymous,
		SubscriptionTier: u.Tier(),
		CreatedAt:        u.CreatedAt,
	}
}

// QuotaSummary reports the month's edit usage for a profile.
type QuotaSummary struct {
	EditsThisMonth int  `json:"edits_this_month"`
	EditsRemaining int  `json:"edits_remaining"`
	Unlimited      bool `json:"unlimited"`
}

// ProfileResponse is the full profile view with the quota summary.
type ProfileResponse struct {
	*UserResponse
	Quota *QuotaSummary `json:"quota"`
}

// ToProfileResponse converts a User to its full profile view.
func (u *User) ToProfileResponse() *ProfileResponse {
	policy := billing.ResolvePolicy(u.Tier())

	used := u.EditsThisMonth
	if !quota.SameMonth(u.EditsMonthStart, time.Now()) {
		used = 0
	}

	return &ProfileResponse{
		UserResponse: u.ToResponse(),
		Quota: &QuotaSummary{
			EditsThisMonth: used,
			EditsRemaining: quota.Remaining(policy.MonthlyLimit, used),
			Unlimited:      policy.MonthlyLimit < 0,
		},
	}
}

// AuthResponse bundles tokens with the authenticated user.
type AuthResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}
