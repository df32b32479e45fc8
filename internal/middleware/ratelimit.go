package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Clients idle this long start over with a full bucket.
	limiterIdle  = 10 * time.Minute
	limiterSweep = time.Minute
	maxClients   = 10000
)

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

type ipLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	rate      rate.Limit
	burst     int
	idle      time.Duration
	max       int
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	idle := limiterIdle
	if r > 0 {
		// An idle client must have refilled its bucket before it is dropped.
		if full := time.Duration(float64(burst) / float64(r) * float64(time.Second)); full > idle {
			idle = full
		}
	}
	return &ipLimiter{
		clients: make(map[string]*client),
		rate:    r,
		burst:   burst,
		idle:    idle,
		max:     maxClients,
		now:     time.Now,
	}
}

// allow reports whether ip may make a request now.
func (ipl *ipLimiter) allow(ip string) bool {
	ipl.mu.Lock()
	defer ipl.mu.Unlock()

	now := ipl.now()
	if now.Sub(ipl.lastSweep) >= limiterSweep {
		ipl.sweep(now)
	}
	c, ok := ipl.clients[ip]
	if !ok {
		if len(ipl.clients) >= ipl.max {
			ipl.evictOldest()
		}
		c = &client{limiter: rate.NewLimiter(ipl.rate, ipl.burst)}
		ipl.clients[ip] = c
	}
	c.seen = now
	return c.limiter.AllowN(now, 1)
}

func (ipl *ipLimiter) sweep(now time.Time) {
	ipl.lastSweep = now
	for ip, c := range ipl.clients {
		if now.Sub(c.seen) > ipl.idle {
			delete(ipl.clients, ip)
		}
	}
}

func (ipl *ipLimiter) evictOldest() {
	var (
		oldest string
		seen   time.Time
	)
	for ip, c := range ipl.clients {
		if oldest == "" || c.seen.Before(seen) {
			oldest, seen = ip, c.seen
		}
	}
	delete(ipl.clients, oldest)
}

// ClientIP strips the port from r.RemoteAddr. chi's RealIP has already
// replaced it with the forwarded address when one is present.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func RateLimit(r rate.Limit, burst int) func(http.Handler) http.Handler {
	il := newIPLimiter(r, burst)
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !il.allow(ClientIP(r)) {
				writeError(w, http.StatusTooManyRequests, "too many submissions, please try again later")
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}

// PerMinute limits each client IP to n requests a minute. Zero disables the
// limit.
func PerMinute(n int) func(http.Handler) http.Handler {
	if n <= 0 {
		return func(h http.Handler) http.Handler { return h }
	}
	return RateLimit(rate.Every(time.Minute/time.Duration(n)), n)
}
