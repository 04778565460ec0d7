package handler

import (
	"strings"

	"github.com/prospermbuma/acquisitions/internal/core/domain"
)

type signUpRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=255"`
	Email    string `json:"email"    validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

// normalize applies the transformations that precede validation: trimmed
// name, trimmed lowercase email and the default role.
func (r *signUpRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = domain.NormalizeEmail(r.Email)
	if r.Role == "" {
		r.Role = string(domain.RoleUser)
	}
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required,max=255,email"`
	Password string `json:"password" validate:"required"`
}

func (r *signInRequest) normalize() {
	r.Email = domain.NormalizeEmail(r.Email)
}

// userResponse is the account summary returned by the auth endpoints.
type userResponse struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type authResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type profileResponse struct {
	User domain.PublicUser `json:"user"`
}

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
