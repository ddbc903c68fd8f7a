package ratelimit

import (
	"context"
	"sync"
	"time"
)

// staleAfter is how long a window is kept after it closes.
const staleAfter = 5 * time.Minute

// Limiter tracks request counts in fixed windows per key.
type Limiter struct {
	mu     sync.Mutex
	limits map[string]*window
	now    func() time.Time
}

type window struct {
	count     int
	windowEnd time.Time
}

// NewLimiter creates a limiter with in-memory tracking.
func NewLimiter() *Limiter {
	return &Limiter{
		limits: make(map[string]*window),
		now:    time.Now,
	}
}

// Allow returns true if the request is within the configured limit. A key
// without a limit or window is never throttled.
func (l *Limiter) Allow(key string, limit int, windowSeconds int) bool {
	if limit <= 0 || windowSeconds <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	win := l.limits[key]
	if win == nil || !now.Before(win.windowEnd) {
		l.limits[key] = &window{
			count:     1,
			windowEnd: now.Add(time.Duration(windowSeconds) * time.Second),
		}
		return true
	}

	if win.count < limit {
		win.count++
		return true
	}

	return false
}

// Reset forgets the window of key, e.g. after the key is revoked.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limits, key)
}

func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, win := range l.limits {
		if now.After(win.windowEnd.Add(staleAfter)) {
			delete(l.limits, key)
			removed++
		}
	}
	return removed
}

// StartCleanup periodically evicts stale windows until ctx is done.
func (l *Limiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()
}
