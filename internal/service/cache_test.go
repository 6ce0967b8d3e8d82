package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jjenkins/evcms/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCache_Expiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := service.NewResponseCache(5*time.Second, clock.Now)

	require.True(t, cache.Put("k", 200, []byte("v"), cache.Generation()))

	status, body, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 200, status)
	assert.Equal(t, "v", string(body))

	clock.Advance(4999 * time.Millisecond)
	_, _, ok = cache.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Millisecond)
	_, _, ok = cache.Get("k")
	assert.False(t, ok, "expired entries are not served before the sweep")
	assert.Equal(t, 1, cache.Len())
}

func TestResponseCache_Sweep(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := service.NewResponseCache(time.Second, clock.Now)
	cache.Put("old", 200, nil, cache.Generation())
	clock.Advance(5 * time.Second)
	cache.Put("new", 200, nil, cache.Generation())

	assert.Equal(t, 0, cache.Sweep())

	clock.Advance(6 * time.Second)
	assert.Equal(t, 1, cache.Sweep())
	assert.Equal(t, 1, cache.Len())
}

func TestResponseCache_InvalidateDropsStalePuts(t *testing.T) {
	t.Parallel()

	cache := service.NewResponseCache(time.Minute, nil)
	gen := cache.Generation()
	cache.Put("a", 200, []byte("a"), gen)

	cache.Invalidate()
	assert.Equal(t, 0, cache.Len())

	assert.False(t, cache.Put("b", 200, []byte("b"), gen))
	_, _, ok := cache.Get("b")
	assert.False(t, ok)

	assert.True(t, cache.Put("b", 200, []byte("b"), cache.Generation()))
}

func TestResponseCache_RunStopsWithContext(t *testing.T) {
	t.Parallel()

	cache := service.NewResponseCache(time.Millisecond, nil)
	cache.Put("k", 200, nil, cache.Generation())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cache.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return cache.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestAction(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"info", "auth", "getMedia", "entriesByFolder", "getEntry", "persistEntry", "deleteEntry"} {
		a, ok := service.ParseAction(name)
		require.True(t, ok, name)
		assert.Equal(t, name, a.String())
	}

	_, ok := service.ParseAction("getContents")
	assert.False(t, ok)
	_, ok = service.ParseAction("Info")
	assert.False(t, ok)

	assert.True(t, service.ActionGetEntry.Cacheable())
	assert.True(t, service.ActionGetContents.Cacheable())
	assert.False(t, service.ActionPersistEntry.Cacheable())
	assert.False(t, service.ActionAuth.Cacheable())
	assert.True(t, service.ActionDeleteEntry.Mutating())
	assert.False(t, service.ActionInfo.Mutating())
}
