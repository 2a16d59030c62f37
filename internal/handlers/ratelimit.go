package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"

	"redeploy/internal/apperr"
	"redeploy/internal/httpjson"

	"golang.org/x/time/rate"
)

// IPRateLimiter держит по token bucket на клиентский IP
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration

	// карта чистится не чаще раза в sweepEvery
	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &IPRateLimiter{
		limiters: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		ttl:      10 * time.Minute,

		sweepEvery: time.Minute,
		lastSweep:  time.Now(),
		now:        time.Now,
	}
}

func (l *IPRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.sweepEvery {
		l.sweep(now)
	}
	v, ok := l.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep удаляет давно не заходивших, чтобы карта не росла бесконечно. Вызывается под mu.
func (l *IPRateLimiter) sweep(now time.Time) {
	for k, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}

func (l *IPRateLimiter) visitors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			httpjson.Write(w, http.StatusTooManyRequests, httpjson.ErrorBody{
				Error: "too many login attempts",
				Kind:  apperr.KindAuth,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP: RemoteAddr без порта; X-Forwarded-For уже учтён middleware.RealIP
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
