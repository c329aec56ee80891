package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Idle client buckets are dropped after clientIdleTTL; the map is pruned at
// most once per pruneInterval.
const (
	clientIdleTTL = 10 * time.Minute
	pruneInterval = time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters holds one token bucket per client address.
type clientLimiters struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	clients   map[string]*clientLimiter
	lastPrune time.Time
	now       func() time.Time
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastPrune) >= pruneInterval {
		for k, cl := range c.clients {
			if now.Sub(cl.lastSeen) > clientIdleTTL {
				delete(c.clients, k)
			}
		}
		c.lastPrune = now
	}

	cl, ok := c.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (c *clientLimiters) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// clientKey returns the client IP. RealIP has already rewritten RemoteAddr
// when a proxy header was present.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit rejects requests beyond rps per client with 429. A non-positive
// rps disables limiting.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	return rateLimit(newClientLimiters(rps, burst))
}

func rateLimit(limiters *clientLimiters) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := limiters.get(clientKey(r)).Reserve()
			if !res.OK() {
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				w.Header().Set("Retry-After", strconv.Itoa(int(delay/time.Second)+1))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
