package store_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jjenkins/evcms/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcher_ReportsChanges(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "content", "intelligence")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	var changes atomic.Int32
	w := store.NewWatcher([]string{filepath.Join(root, "content"), filepath.Join(root, "missing")}, func() {
		changes.Add(1)
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// give the watcher time to register directories
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("hi"), 0o644))

	require.Eventually(t, func() bool { return changes.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}
