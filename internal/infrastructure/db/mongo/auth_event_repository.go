package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prospermbuma/acquisitions/internal/core/domain"
)

// AuthEventRepository implements ports.AuthEventRepository using MongoDB.
type AuthEventRepository struct {
	db *mongo.Database
}

func NewAuthEventRepository(db *mongo.Database) *AuthEventRepository {
	return &AuthEventRepository{db: db}
}

type mongoAuthEvent struct {
	ID         int64     `bson:"_id"`
	Type       string    `bson:"type"`
	UserID     *int64    `bson:"user_id,omitempty"`
	Email      string    `bson:"email"`
	IP         string    `bson:"ip,omitempty"`
	UserAgent  string    `bson:"user_agent,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
}

func (r *AuthEventRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	id, err := nextSequence(ctx, r.db, authEventsCollection)
	if err != nil {
		return err
	}

	doc := mongoAuthEvent{
		ID:         id,
		Type:       string(event.Type),
		Email:      event.Email,
		IP:         event.IP,
		UserAgent:  event.UserAgent,
		OccurredAt: event.OccurredAt.UTC(),
	}
	if event.UserID != 0 {
		uid := event.UserID
		doc.UserID = &uid
	}

	if _, err := r.db.Collection(authEventsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	event.ID = id
	return nil
}
