package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/prospermbuma/acquisitions/internal/core/domain"
)

type AuthEventRepository struct {
	db *sqlx.DB
}

func NewAuthEventRepository(db *sqlx.DB) *AuthEventRepository {
	return &AuthEventRepository{db: db}
}

func (r *AuthEventRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	userID := sql.NullInt64{Int64: event.UserID, Valid: event.UserID != 0}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_events (type, user_id, email, ip, user_agent, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(event.Type),
		userID,
		event.Email,
		event.IP,
		event.UserAgent,
		event.OccurredAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	if event.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
