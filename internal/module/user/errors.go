package user

import "errors"

// Module errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeleted     = errors.New("account deleted")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordRequired   = errors.New("password required for email users")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrAnonymousUpgrade   = errors.New("anonymous account cannot perform this action")
)
