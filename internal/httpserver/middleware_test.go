package httpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiter_PrunesRefilledEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ll := NewLoginLimiter(2)
	ll.now = func() time.Time { return now }

	assert.True(t, ll.Allow("10.0.0.1"))
	assert.True(t, ll.Allow("10.0.0.2"))
	assert.True(t, ll.Allow("10.0.0.2"))
	assert.False(t, ll.Allow("10.0.0.2"))
	assert.Equal(t, 2, ll.Len())

	// Both limiters have refilled by the next prune; only the new key remains.
	now = now.Add(2 * time.Minute)
	assert.True(t, ll.Allow("10.0.0.3"))
	assert.Equal(t, 1, ll.Len())
}

func TestLoginLimiter_KeepsThrottledEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ll := NewLoginLimiter(2)
	ll.now = func() time.Time { return now }

	assert.True(t, ll.Allow("10.0.0.9"))

	now = now.Add(30 * time.Second)
	assert.True(t, ll.Allow("10.0.0.1"))
	assert.True(t, ll.Allow("10.0.0.1"))
	assert.False(t, ll.Allow("10.0.0.1"))

	// At the next prune 10.0.0.1 has only partly refilled and keeps its state.
	now = now.Add(40 * time.Second)
	assert.True(t, ll.Allow("10.0.0.2"))
	assert.Equal(t, 2, ll.Len())
	assert.True(t, ll.Allow("10.0.0.1"))
	assert.False(t, ll.Allow("10.0.0.1"))
}

func TestLoginLimiter_Disabled(t *testing.T) {
	t.Parallel()

	var nilLimiter *LoginLimiter
	assert.True(t, nilLimiter.Allow("x"))

	ll := NewLoginLimiter(0)
	for range 5 {
		assert.True(t, ll.Allow("x"))
	}
	assert.Equal(t, 0, ll.Len())
}
