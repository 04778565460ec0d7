// Package sqlite stores users in an embedded SQLite database.
//
// It backs local development and the repository tests. Transactions are
// opened with BEGIN IMMEDIATE so that concurrent registrations serialize on
// the write lock instead of failing with SQLITE_BUSY on upgrade.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Config captures the settings required to open the database.
type Config struct {
	// URL is a file: URI, a sqlite: prefixed path or ":memory:".
	URL string
}

// Open opens the database, applies connection pragmas and creates the schema.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	dsn, memory := buildDSN(cfg.URL)

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if memory {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// buildDSN appends the pragmas each pooled connection needs. Pragmas set
// through db.Exec would only reach a single connection.
func buildDSN(url string) (dsn string, memory bool) {
	dsn = strings.TrimPrefix(url, "sqlite://")
	dsn = strings.TrimPrefix(dsn, "sqlite:")
	memory = dsn == ":memory:" || strings.Contains(dsn, "mode=memory")

	params := []string{
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
		"_txlock=immediate",
	}
	if !memory {
		params = append(params, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&"), memory
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	password   TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);

CREATE TABLE IF NOT EXISTS auth_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	type        TEXT NOT NULL,
	user_id     INTEGER REFERENCES users (id) ON DELETE SET NULL,
	email       TEXT NOT NULL,
	ip          TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	occurred_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS auth_events_email_idx ON auth_events (email, occurred_at);
`

// Migrate creates the tables and indexes the repositories rely on.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite migrate: %w", err)
	}
	return nil
}
