package ports

import (
	"context"

	"github.com/prospermbuma/acquisitions/internal/core/domain"
)

// UserRepository defines the persistence contract for user accounts.
//
// Create must map a violation of the unique email constraint to
// domain.ErrDuplicateEmail. Lookups that find nothing return
// domain.ErrUserNotFound. Any other failure is returned wrapped.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)

	// WithinTx runs fn against a repository bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(repo UserRepository) error) error

	Ping(ctx context.Context) error
}

// AuthEventRepository persists the authentication audit trail.
type AuthEventRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}
