package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prospermbuma/acquisitions/internal/core/domain"
)

type AuthEventRepository struct {
	pool *pgxpool.Pool
}

func NewAuthEventRepository(pool *pgxpool.Pool) *AuthEventRepository {
	return &AuthEventRepository{pool: pool}
}

func (r *AuthEventRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	const query = `
		INSERT INTO auth_events (type, user_id, email, ip, user_agent, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var userID *int64
	if event.UserID != 0 {
		userID = &event.UserID
	}

	if err := r.pool.QueryRow(ctx, query,
		string(event.Type),
		userID,
		event.Email,
		event.IP,
		event.UserAgent,
		event.OccurredAt,
	).Scan(&event.ID); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
