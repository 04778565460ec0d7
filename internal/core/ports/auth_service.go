package ports

import (
	"context"

	"github.com/prospermbuma/acquisitions/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to AuthService.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role // optional, defaults to domain.RoleUser
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Profile(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
}

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// AuditRecorder accepts auth events for asynchronous persistence.
// Record never blocks the caller.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}
