package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MetricStore persists calculated content metrics
type MetricStore struct {
	db *sql.DB
}

// NewMetricStore creates a new MetricStore
func NewMetricStore(db *sql.DB) *MetricStore {
	return &MetricStore{db: db}
}

// StoreMetric stores a single metric value
func (s *MetricStore) StoreMetric(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO metrics (metric_name, metric_value, calculated_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.db.ExecContext(ctx, query, name, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store metric %s: %w", name, err)
	}

	return nil
}

// LatestMetrics retrieves the most recent value of every metric
func (s *MetricStore) LatestMetrics(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT DISTINCT ON (metric_name) metric_name, metric_value
		FROM metrics
		ORDER BY metric_name, calculated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	defer rows.Close()

	metrics := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics[name] = value
	}

	return metrics, rows.Err()
}
