package main

import (
	"context"
	"fmt"

	"github.com/prospermbuma/acquisitions/internal/core/ports"
	mongostore "github.com/prospermbuma/acquisitions/internal/infrastructure/db/mongo"
	"github.com/prospermbuma/acquisitions/internal/infrastructure/db/postgres"
	"github.com/prospermbuma/acquisitions/internal/infrastructure/db/sqlite"
	"github.com/prospermbuma/acquisitions/internal/pkg/config"
)

// store bundles the repositories of the selected backend with its teardown.
type store struct {
	driver string
	users  ports.UserRepository
	events ports.AuthEventRepository
	close  func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	driver, err := cfg.Database.ResolveDriver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		return &store{
			driver: driver,
			users:  postgres.NewUserRepository(pool),
			events: postgres.NewAuthEventRepository(pool),
			close:  func(context.Context) error { pool.Close(); return nil },
		}, nil

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Database.URL,
			Database: cfg.Database.MongoDB,
		})
		if err != nil {
			return nil, err
		}
		return &store{
			driver: driver,
			users:  mongostore.NewUserRepository(db),
			events: mongostore.NewAuthEventRepository(db),
			close:  client.Disconnect,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, sqlite.Config{URL: cfg.Database.URL})
		if err != nil {
			return nil, err
		}
		return &store{
			driver: driver,
			users:  sqlite.NewUserRepository(db),
			events: sqlite.NewAuthEventRepository(db),
			close:  func(context.Context) error { return db.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", driver)
}
