package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAllowsUpToMaxAttempts(t *testing.T) {
	l := NewLoginLimiter(15*time.Minute, 5)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, retry := l.Check("10.0.0.1")
		require.True(t, allowed, "attempt %d should be allowed", i+1)
		assert.Zero(t, retry)
	}
	allowed, retry := l.Check("10.0.0.1")
	assert.False(t, allowed, "6th attempt should be denied")
	assert.Positive(t, retry)
	assert.LessOrEqual(t, retry, 15*60)
}

func TestCheckTracksIPsIndependently(t *testing.T) {
	l := NewLoginLimiter(15*time.Minute, 1)
	defer l.Stop()

	allowed, _ := l.Check("10.0.0.1")
	require.True(t, allowed)
	allowed, _ = l.Check("10.0.0.1")
	require.False(t, allowed)

	allowed, _ = l.Check("10.0.0.2")
	assert.True(t, allowed, "a different IP has its own window")
}

func TestResetClearsWindow(t *testing.T) {
	l := NewLoginLimiter(15*time.Minute, 2)
	defer l.Stop()

	l.Check("10.0.0.1")
	l.Check("10.0.0.1")
	allowed, _ := l.Check("10.0.0.1")
	require.False(t, allowed)

	l.Reset("10.0.0.1")
	allowed, _ = l.Check("10.0.0.1")
	assert.True(t, allowed, "reset should start a fresh window")
}

func TestExpiredWindowStartsFresh(t *testing.T) {
	l := NewLoginLimiter(time.Minute, 1)
	defer l.Stop()

	now := time.Now()
	l.now = func() time.Time { return now }

	allowed, _ := l.Check("10.0.0.1")
	require.True(t, allowed)
	allowed, _ = l.Check("10.0.0.1")
	require.False(t, allowed)

	// advance past the window
	l.now = func() time.Time { return now.Add(61 * time.Second) }
	allowed, _ = l.Check("10.0.0.1")
	assert.True(t, allowed)
}

func TestRetryAfterRoundsUpToAtLeastOneSecond(t *testing.T) {
	l := NewLoginLimiter(time.Minute, 1)
	defer l.Stop()

	now := time.Now()
	l.now = func() time.Time { return now }
	l.Check("10.0.0.1")

	// 200ms before the window resets the wait still reports one second
	l.now = func() time.Time { return now.Add(time.Minute - 200*time.Millisecond) }
	allowed, retry := l.Check("10.0.0.1")
	require.False(t, allowed)
	assert.Equal(t, 1, retry)
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	l := NewLoginLimiter(time.Minute, 5)
	defer l.Stop()

	now := time.Now()
	l.now = func() time.Time { return now }
	l.Check("10.0.0.1")
	l.Check("10.0.0.2")
	require.Equal(t, 2, l.size())

	l.now = func() time.Time { return now.Add(2 * time.Minute) }
	l.sweep()
	assert.Zero(t, l.size())
}
