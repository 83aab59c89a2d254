package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/velo/server/internal/module/auth"
	"github.com/velo/server/internal/shared/middleware"
)

// Handler handles HTTP requests for accounts and sessions.
type Handler struct {
	service *Service
}

// NewHandler creates a new user handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the public auth routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/anonymous", h.StartAnonymousSession)
		authGroup.POST("/google", h.LoginWithGoogle)
		authGroup.POST("/refresh", h.Refresh)
	}
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/auth/logout", h.Logout)

	users := r.Group("/users")
	{
		users.GET("/me", h.GetCurrentUser)
		users.PUT("/me", h.UpdateProfile)
		users.PUT("/me/password", h.ChangePassword)
		users.DELETE("/me", h.DeleteAccount)
	}
}

// Register handles user registration.
//
//	@Summary		Register new user
//	@Description	Create a new account with email and password
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Registration request"
//	@Success		201		{object}	AuthResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Router			/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse(tokens, user))
}

// Login handles email/password login.
//
//	@Summary		Login with password
//	@Description	Authenticate with email and password
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Login request"
//	@Success		200		{object}	AuthResponse
//	@Failure		401		{object}	map[string]string
//	@Router			/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, user, err := h.service.Login(c.Request.Context(), req.Email, req.Password,
		c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse(tokens, user))
}

// StartAnonymousSession creates a guest account for a new device.
//
//	@Summary		Start anonymous session
//	@Description	Create a guest account so the app can edit before sign-up
//	@Tags			User
//	@Produce		json
//	@Success		201	{object}	AuthResponse
//	@Router			/auth/anonymous [post]
func (h *Handler) StartAnonymousSession(c *gin.Context) {
	tokens, user, err := h.service.StartAnonymousSession(c.Request.Context(),
		c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse(tokens, user))
}

// LoginWithGoogle handles Google sign-in.
//
//	@Summary		Login with Google
//	@Description	Exchange an OAuth authorization code for a session
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Param			request	body		GoogleLoginRequest	true	"OAuth code"
//	@Success		200		{object}	AuthResponse
//	@Failure		401		{object}	map[string]string
//	@Router			/auth/google [post]
func (h *Handler) LoginWithGoogle(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, user, err := h.service.LoginWithGoogle(c.Request.Context(), req.Code,
		c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse(tokens, user))
}

// Refresh rotates a refresh token into a new token pair.
//
//	@Summary		Refresh tokens
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RefreshRequest	true	"Refresh request"
//	@Success		200		{object}	auth.TokenPair
//	@Failure		401		{object}	map[string]string
//	@Router			/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.service.RefreshTokens(c.Request.Context(), req.RefreshToken,
		c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Logout revokes the user's refresh tokens.
//
//	@Summary		Logout
//	@Tags			User
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	MessageResponse
//	@Router			/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// GetCurrentUser returns the authenticated user's profile.
//
//	@Summary		Get current user
//	@Tags			User
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	ProfileResponse
//	@Failure		401	{object}	map[string]string
//	@Router			/users/me [get]
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.ToProfileResponse())
}

// UpdateProfile updates the authenticated user's profile.
//
//	@Summary		Update profile
//	@Tags			User
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		UpdateProfileRequest	true	"Profile update"
//	@Success		200		{object}	UserResponse
//	@Router			/users/me [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

// ChangePassword changes the authenticated user's password.
//
//	@Summary		Change password
//	@Tags			User
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	MessageResponse
//	@Router			/users/me/password [put]
func (h *Handler) ChangePassword(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

// DeleteAccount handles account deletion.
//
//	@Summary		Delete account
//	@Tags			User
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	MessageResponse
//	@Router			/users/me [delete]
func (h *Handler) DeleteAccount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), userID, req.Password); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}

// --- Helpers ---

func authResponse(tokens *TokenPair, user *User) *AuthResponse {
	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		ExpiresIn:    tokens.ExpiresIn,
	}
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found", "message": "User not found"})
	case errors.Is(err, ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email_already_registered", "message": "Email already registered"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials", "message": "Invalid email or password"})
	case errors.Is(err, ErrAccountDeleted):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_deleted", "message": "This account has been deleted"})
	case errors.Is(err, ErrIncorrectPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect_password", "message": "Current password is incorrect"})
	case errors.Is(err, ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password_too_short", "message": "Password must be at least 8 characters"})
	case errors.Is(err, ErrPasswordRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password_required", "message": "Password is required"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "message": "Invalid or expired token"})
	case errors.Is(err, auth.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token_expired", "message": "Token has expired"})
	case errors.Is(err, auth.ErrOAuthExchange):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "oauth_failed", "message": "Google sign-in failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
