// Package ratelimit throttles login attempts. A Limiter counts events
// per key in fixed windows; LoginLimiter layers a per-IP and a per-email
// limiter so neither a single machine nor a single targeted account can
// absorb unlimited password guesses.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts events per key within a fixed window. Safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

type bucket struct {
	count   int
	resetAt time.Time
}

// New creates a limiter allowing limit events per key per window.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}
	go l.sweep()
	return l
}

// Allow records one event for key and reports whether it is within the
// limit. The first event after a window lapses starts a fresh count.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// Remaining reports how many events key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || time.Now().After(b.resetAt) {
		return l.limit
	}
	if left := l.limit - b.count; left > 0 {
		return left
	}
	return 0
}

// Reset forgets everything recorded for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweep drops lapsed buckets so abandoned keys don't accumulate.
func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.window * 2)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, b := range l.buckets {
			if now.After(b.resetAt) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP resolves the client address of a request: first hop of
// X-Forwarded-For, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); first != "" {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimits configures the two login throttles.
type LoginLimits struct {
	IPLimit     int
	IPWindow    time.Duration
	EmailLimit  int
	EmailWindow time.Duration
}

// withDefaults fills any zero field with the stock limits:
// 10 attempts per IP per minute, 5 attempts per email per 5 minutes.
func (ll LoginLimits) withDefaults() LoginLimits {
	if ll.IPLimit <= 0 {
		ll.IPLimit = 10
	}
	if ll.IPWindow <= 0 {
		ll.IPWindow = time.Minute
	}
	if ll.EmailLimit <= 0 {
		ll.EmailLimit = 5
	}
	if ll.EmailWindow <= 0 {
		ll.EmailWindow = 5 * time.Minute
	}
	return ll
}

// LoginLimiter throttles login attempts by client IP and by target
// email. The IP limit catches one machine hammering many accounts, the
// email limit catches many machines hammering one account.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter builds a login limiter from limits; zero fields fall
// back to the defaults documented on LoginLimits.
func NewLoginLimiter(limits LoginLimits) *LoginLimiter {
	limits = limits.withDefaults()
	return &LoginLimiter{
		byIP:    New(limits.IPLimit, limits.IPWindow),
		byEmail: New(limits.EmailLimit, limits.EmailWindow),
	}
}

// Check records one attempt and reports whether it may proceed. A
// blocked attempt carries a caller-facing reason.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if email != "" {
		if !ll.byEmail.Allow(strings.ToLower(strings.TrimSpace(email))) {
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetEmail clears the email throttle after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if email != "" {
		ll.byEmail.Reset(strings.ToLower(strings.TrimSpace(email)))
	}
}
