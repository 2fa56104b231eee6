package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	ttls   map[string]time.Duration
	err    error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCounter) IncrWindow(_ context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	f.ttls[key] = ttl
	return f.counts[key], nil
}

func TestWindowStore_LimitsPerWindow(t *testing.T) {
	counter := newFakeCounter()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 10, 0, 30, 0, time.UTC))
	store := NewWindowStore(counter, 2, time.Minute, clock)

	for i := 0; i < 2; i++ {
		allowed, err := store.Allow("1.2.3.4")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := store.Allow("1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _ = store.Allow("5.6.7.8")
	assert.True(t, allowed, "identifiers are independent")

	clock.Advance(30 * time.Second)
	allowed, _ = store.Allow("1.2.3.4")
	assert.True(t, allowed, "new window resets the count")

	for key, ttl := range counter.ttls {
		assert.Contains(t, key, RATE_LIMIT_KEY_PREFIX)
		assert.Equal(t, time.Minute, ttl)
	}
}

func TestWindowStore_FailsOpen(t *testing.T) {
	counter := newFakeCounter()
	counter.err = errors.New("connection refused")
	store := NewWindowStore(counter, 1, time.Minute, clockwork.NewFakeClock())

	for i := 0; i < 3; i++ {
		allowed, err := store.Allow("1.2.3.4")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}
