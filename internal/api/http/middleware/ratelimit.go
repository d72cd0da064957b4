package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/warelock/warelock-auth/internal/api/http/response"
)

// RateLimit throttles the login and two-factor endpoints per source
// address. This gate is independent of the account lockout; the two are
// separate defenses.
type RateLimit struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimit allows perWindow requests per window with the given burst.
func NewRateLimit(perWindow int, window time.Duration, burst int) *RateLimit {
	if perWindow <= 0 {
		perWindow = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimit{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(float64(perWindow) / window.Seconds()),
		burst:    burst,
	}
}

func (l *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(sourceIP(r)) {
			response.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimit) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.limiters[key]
	if !ok {
		// Opportunistic cleanup keeps the map from growing without bound.
		if len(l.limiters) > 10000 {
			for k, e := range l.limiters {
				if now.Sub(e.lastSeen) > time.Hour {
					delete(l.limiters, k)
				}
			}
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

func sourceIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
