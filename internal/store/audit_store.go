package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jjenkins/evcms/internal/model"
)

// AuditStore handles database operations for audit events
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore creates a new AuditStore
func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Insert stores an audit event and sets its ID
func (s *AuditStore) Insert(ctx context.Context, e *model.AuditEvent) error {
	query := `
		INSERT INTO cms_audit_events (occurred_at, request_id, method, path,
		                              action, target, status, duration_ms, cached)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		e.Time,
		e.RequestID,
		e.Method,
		e.Path,
		e.Action,
		e.Target,
		e.Status,
		e.DurationMS,
		e.Cached,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

// Recent returns the newest audit events, newest first
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, occurred_at, request_id, method, path, action, target,
		       status, duration_ms, cached
		FROM cms_audit_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := []model.AuditEvent{}
	for rows.Next() {
		var e model.AuditEvent
		if err := rows.Scan(
			&e.ID,
			&e.Time,
			&e.RequestID,
			&e.Method,
			&e.Path,
			&e.Action,
			&e.Target,
			&e.Status,
			&e.DurationMS,
			&e.Cached,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
