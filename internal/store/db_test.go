package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/store"
	"github.com/stretchr/testify/require"
)

// Runs only against a disposable database named by TEST_DATABASE_URL.
func TestPostgresStores(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := store.NewDB(dsn)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx, db))

	audits := store.NewAuditStore(db)
	event := &model.AuditEvent{
		Time:       time.Now().UTC(),
		RequestID:  uuid.NewString(),
		Method:     "POST",
		Path:       "/api/cms",
		Action:     "persistEntry",
		Target:     "content/intelligence/test-1.md",
		Status:     200,
		DurationMS: 3,
	}
	require.NoError(t, audits.Insert(ctx, event))
	require.NotZero(t, event.ID)

	recent, err := audits.Recent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recent)

	found := false
	for _, e := range recent {
		if e.RequestID == event.RequestID {
			found = true
			require.Equal(t, event.Target, e.Target)
		}
	}
	require.True(t, found)

	metrics := store.NewMetricStore(db)
	require.NoError(t, metrics.StoreMetric(ctx, "total_items", "12"))
	latest, err := metrics.LatestMetrics(ctx)
	require.NoError(t, err)
	require.Equal(t, "12", latest["total_items"])
}
