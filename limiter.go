package blogfront

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// LoginLimiter rate-limits failed login attempts per client IP.
type LoginLimiter struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	attempts map[string][]time.Time
	swept    time.Time
	max      int
	window   time.Duration
}

// NewLoginLimiter creates a LoginLimiter that allows max failed attempts per
// window.
func NewLoginLimiter(max int, window time.Duration, clock clockwork.Clock) *LoginLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LoginLimiter{
		clock:    clock,
		attempts: make(map[string][]time.Time),
		swept:    clock.Now(),
		max:      max,
		window:   window,
	}
}

// Check returns true if the IP has not exceeded the rate limit.
// It does not record an attempt; call Record separately on failure.
func (l *LoginLimiter) Check(ip string) bool {
	cutoff := l.clock.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := recent(l.attempts[ip], cutoff)
	if len(kept) == 0 {
		delete(l.attempts, ip)
		return true
	}
	l.attempts[ip] = kept
	return len(kept) < l.max
}

// Record registers a failed login attempt for the given IP.
func (l *LoginLimiter) Record(ip string) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts[ip] = append(l.attempts[ip], now)
	if now.Sub(l.swept) >= l.window {
		l.sweepLocked(now.Add(-l.window))
		l.swept = now
	}
}

// Reset forgets the attempts of ip, e.g. after a successful login.
func (l *LoginLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.attempts, ip)
	l.mu.Unlock()
}

// sweepLocked drops IPs whose attempts have all expired.
func (l *LoginLimiter) sweepLocked(cutoff time.Time) {
	for ip, hits := range l.attempts {
		if kept := recent(hits, cutoff); len(kept) == 0 {
			delete(l.attempts, ip)
		} else {
			l.attempts[ip] = kept
		}
	}
}

func (l *LoginLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

func recent(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
