package domain

import "errors"

var (
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("access forbidden")
)

// Infrastructure failures. Callers wrap the underlying cause with %w so the
// central error handler can log it while clients only see a generic message.
var (
	ErrHashing    = errors.New("password hashing failed")
	ErrComparison = errors.New("password comparison failed")
	ErrStore      = errors.New("user store failure")
)
