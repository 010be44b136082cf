// Package ratelimit implements the fixed-window counter that guards the
// login endpoint. The limiter is an explicit instance owned by the
// server, constructed at startup and handed to the login route; state is
// per process and resets on restart.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// LoginLimiter counts login attempts per client IP inside a fixed
// window. The map is mutex-guarded: concurrent increments on the same IP
// key race otherwise.
type LoginLimiter struct {
	mu          sync.Mutex
	entries     map[string]*entry
	window      time.Duration
	maxAttempts int

	stop chan struct{}
	once sync.Once

	// now is swappable for tests.
	now func() time.Time
}

// NewLoginLimiter builds a limiter with the given window and attempt cap.
func NewLoginLimiter(window time.Duration, maxAttempts int) *LoginLimiter {
	return &LoginLimiter{
		entries:     make(map[string]*entry),
		window:      window,
		maxAttempts: maxAttempts,
		stop:        make(chan struct{}),
		now:         time.Now,
	}
}

// Check records one attempt from ip and reports whether it is allowed.
// When denied, retryAfter is the number of seconds until the window
// resets, rounded up and always positive.
func (l *LoginLimiter) Check(ip string) (allowed bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[ip]
	if !ok || !now.Before(e.resetAt) {
		// first attempt, or the previous window has expired
		l.entries[ip] = &entry{count: 1, resetAt: now.Add(l.window)}
		return true, 0
	}
	if e.count < l.maxAttempts {
		e.count++
		return true, 0
	}
	secs := int(math.Ceil(e.resetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return false, secs
}

// Reset clears the entry for ip. Called after a successful login so a
// legitimate user is not penalized by earlier failed attempts.
func (l *LoginLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.entries, ip)
	l.mu.Unlock()
}

// StartSweeper launches a goroutine that periodically deletes entries
// whose window has already expired. Stop terminates it.
func (l *LoginLimiter) StartSweeper(interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				l.sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop shuts down the sweeper goroutine. Safe to call more than once.
func (l *LoginLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *LoginLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, ip)
		}
	}
}

// size reports the number of tracked IPs. Used by tests and the sweeper
// assertions only.
func (l *LoginLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
