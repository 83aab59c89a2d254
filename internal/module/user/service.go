package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/velo/server/internal/module/auth"
	"github.com/velo/server/internal/module/billing"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// TokenPair is re-exported from auth for convenience.
type TokenPair = auth.TokenPair

// OAuthProvider abstracts the OAuth code exchange flow.
type OAuthProvider interface {
	Name() string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	GetUserInfo(ctx context.Context, token *oauth2.Token) (*auth.OAuthUserInfo, error)
}

// Service provides account management operations.
type Service struct {
	repo      Repository
	tokenRepo auth.RefreshTokenRepository
	jwt       *auth.JWTManager
	oauth     OAuthProvider
	logger    *zap.Logger
}

// NewService creates a new user service.
func NewService(
	repo Repository,
	tokenRepo auth.RefreshTokenRepository,
	jwt *auth.JWTManager,
	oauth OAuthProvider,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		tokenRepo: tokenRepo,
		jwt:       jwt,
		oauth:     oauth,
		logger:    logger,
	}
}

// --- Registration and Login ---

// Register creates a new account with email and password.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*TokenPair, *User, error) {
	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, nil, ErrEmailAlreadyExists
	}
	if err != nil && err != ErrUserNotFound {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	if len(req.Password) < 8 {
		return nil, nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)

	user := &User{
		ID:               uuid.New(),
		Email:            req.Email,
		Name:             req.Name,
		RoleType:         req.RoleType,
		PasswordHash:     &hashStr,
		SubscriptionTier: billing.TierFree,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.generateTokenPair(ctx, user, "", "")
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// Login authenticates a user with email and password.
func (s *Service) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*TokenPair, *User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if user.PasswordHash == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokenPair(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// StartAnonymousSession creates a device-local account so the app can
// edit before sign-up. Anonymous accounts are always on the free tier.
func (s *Service) StartAnonymousSession(ctx context.Context, userAgent, ipAddress string) (*TokenPair, *User, error) {
	id := uuid.New()
	user := &User{
		ID:               id,
		Email:            fmt.Sprintf("anon-%s@device.local", id),
		Name:             "Guest",
		IsAnonymous:      true,
		SubscriptionTier: billing.TierFree,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create anonymous user: %w", err)
	}

	tokens, err := s.generateTokenPair(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// LoginWithGoogle exchanges an OAuth authorization code and signs the
// user in, creating the account on first login.
func (s *Service) LoginWithGoogle(ctx context.Context, code, userAgent, ipAddress string) (*TokenPair, *User, error) {
	if s.oauth == nil {
		return nil, nil, auth.ErrOAuthExchange
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", auth.ErrOAuthExchange, err)
	}

	info, err := s.oauth.GetUserInfo(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", auth.ErrOAuthExchange, err)
	}

	user, err := s.findOrCreateOAuthUser(ctx, info)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.generateTokenPair(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

func (s *Service) findOrCreateOAuthUser(ctx context.Context, info *auth.OAuthUserInfo) (*User, error) {
	provider := s.oauth.Name()

	user, err := s.repo.GetByOAuth(ctx, provider, info.ID)
	if err == nil {
		return user, nil
	}
	if err != ErrUserNotFound {
		return nil, fmt.Errorf("lookup oauth user: %w", err)
	}

	// Link by email if the account already exists, otherwise create.
	user, err = s.repo.GetByEmail(ctx, info.Email)
	if err == nil {
		user.OAuthProvider = &provider
		oauthID := info.ID
		user.OAuthID = &oauthID
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("link oauth account: %w", err)
		}
		return user, nil
	}
	if err != ErrUserNotFound {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	oauthID := info.ID
	user = &User{
		ID:               uuid.New(),
		Email:            info.Email,
		Name:             info.Name,
		AvatarURL:        info.AvatarURL,
		OAuthProvider:    &provider,
		OAuthID:          &oauthID,
		SubscriptionTier: billing.TierFree,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	return user, nil
}

// --- Tokens ---

// RefreshTokens rotates a refresh token into a new token pair.
func (s *Service) RefreshTokens(ctx context.Context, rawToken, userAgent, ipAddress string) (*TokenPair, error) {
	hash := s.jwt.HashRefreshToken(rawToken)

	stored, err := s.tokenRepo.GetByHash(ctx, hash)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	if !stored.IsValid() {
		return nil, auth.ErrTokenExpired
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	// Rotation: the old token is single use.
	if err := s.tokenRepo.Revoke(ctx, stored.ID); err != nil {
		s.logger.Error("failed to revoke refresh token", zap.Error(err))
	}

	return s.generateTokenPair(ctx, user, userAgent, ipAddress)
}

// Logout revokes all refresh tokens for the user.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.tokenRepo.RevokeAllForUser(ctx, userID)
}

// --- Profile ---

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile updates a user's profile.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.RoleType != nil {
		user.RoleType = *req.RoleType
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ChangePassword changes a user's password.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.PasswordHash == nil {
		return ErrPasswordRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrIncorrectPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)

	user.PasswordHash = &hashStr
	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteAccount soft deletes a user's account.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.IsEmailUser() {
		if password == "" {
			return ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
			return ErrIncorrectPassword
		}
	}

	if err := s.tokenRepo.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke tokens", zap.Error(err))
	}

	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// --- Subscription Tier ---

// UpdateTier sets the subscription tier for a user.
func (s *Service) UpdateTier(ctx context.Context, userID uuid.UUID, tier billing.Tier) error {
	if !tier.IsValid() {
		tier = billing.TierFree
	}
	return s.repo.UpdateTier(ctx, userID, tier)
}

// UpdateTierByStripeCustomer sets the tier for the user owning the
// Stripe customer. Satisfies billing.TierUpdater.
func (s *Service) UpdateTierByStripeCustomer(ctx context.Context, customerID string, tier billing.Tier) error {
	if !tier.IsValid() {
		tier = billing.TierFree
	}
	return s.repo.UpdateTierByStripeCustomer(ctx, customerID, tier)
}

// --- Helpers ---

func (s *Service) generateTokenPair(ctx context.Context, user *User, userAgent, ipAddress string) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	rawRefreshToken, tokenHash, refreshExpiresAt, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	record := &auth.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: refreshExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.GetAccessTokenExpiry().Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}
