package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const defaultLimiterClients = 4096

// LoginLimiter throttles login attempts per client IP. Idle clients are
// evicted least-recently-used first so the table stays bounded.
type LoginLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients *lru.Cache[string, *rate.Limiter]
}

// NewLoginLimiter allows perMinute attempts per IP with the given burst.
func NewLoginLimiter(perMinute, burst int) (*LoginLimiter, error) {
	clients, err := lru.New[string, *rate.Limiter](defaultLimiterClients)
	if err != nil {
		return nil, err
	}
	if burst <= 0 {
		burst = 1
	}
	return &LoginLimiter{
		limit:   rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:   burst,
		clients: clients,
	}, nil
}

// Allow reports whether key may attempt a login now.
func (l *LoginLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	limiter, ok := l.clients.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.clients.Add(key, limiter)
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// RetryAfter is how long a throttled client should wait for one token.
func (l *LoginLimiter) RetryAfter() time.Duration {
	if l == nil || l.limit <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / float64(l.limit))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
