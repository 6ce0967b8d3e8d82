package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// NewDB opens and verifies a PostgreSQL connection
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS cms_audit_events (
	id           BIGSERIAL PRIMARY KEY,
	occurred_at  TIMESTAMPTZ NOT NULL,
	request_id   TEXT NOT NULL,
	method       TEXT NOT NULL,
	path         TEXT NOT NULL,
	action       TEXT NOT NULL,
	target       TEXT NOT NULL DEFAULT '',
	status       INTEGER NOT NULL,
	duration_ms  BIGINT NOT NULL,
	cached       BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS cms_audit_events_occurred_at_idx
	ON cms_audit_events (occurred_at DESC);

CREATE TABLE IF NOT EXISTS metrics (
	id             BIGSERIAL PRIMARY KEY,
	metric_name    TEXT NOT NULL,
	metric_value   TEXT NOT NULL,
	calculated_at  TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the audit and metrics tables when missing
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
