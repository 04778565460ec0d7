package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prospermbuma/acquisitions/internal/core/domain"
	"github.com/prospermbuma/acquisitions/internal/core/ports"
	"github.com/prospermbuma/acquisitions/internal/pkg/metrics"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AuthService implements registration, authentication and profile lookups.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, log: log, now: time.Now}
}

// Register creates an account. The password is hashed first; the email is
// normalized before the lookup and the insert, which run in one transaction; the store's unique index
// decides concurrent races and surfaces as domain.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidRole, role)
	}

	// Hashing stays outside the transaction so bcrypt never holds the
	// store's write lock or a pooled connection.
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		err = classify(err)
		metrics.AuthAttemptsTotal.WithLabelValues("sign_up", resultLabel(err)).Inc()
		return nil, err
	}

	var created *domain.User
	err = s.repo.WithinTx(ctx, func(tx ports.UserRepository) error {
		_, err := tx.FindByEmail(ctx, email)
		switch {
		case err == nil:
			return domain.ErrDuplicateEmail
		case !errors.Is(err, domain.ErrUserNotFound):
			return err
		}

		now := s.now().UTC()
		created, err = tx.Create(ctx, &domain.User{
			Name:         strings.TrimSpace(in.Name),
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		return err
	})
	if err != nil {
		err = classify(err)
		metrics.AuthAttemptsTotal.WithLabelValues("sign_up", resultLabel(err)).Inc()
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("sign_up", "success").Inc()
	return created, nil
}

// Authenticate checks email and password. Unknown accounts, wrong passwords
// and unreadable stored hashes all yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.authenticate(ctx, domain.NormalizeEmail(email), password)
	metrics.AuthAttemptsTotal.WithLabelValues("sign_in", resultLabel(err)).Inc()
	return user, err
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, classify(err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("stored password hash could not be compared")
		return nil, domain.ErrInvalidCredentials
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Profile loads the account a verified session token points at.
func (s *AuthService) Profile(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, classify(err)
	}
	return user, nil
}

// ListUsers pages through accounts ordered by id. limit is clamped to
// [1, 100]; zero selects the default page size.
func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	return users, nil
}

// classify keeps business outcomes intact and tags everything else as a
// store failure.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrHashing),
		errors.Is(err, domain.ErrStore):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}
