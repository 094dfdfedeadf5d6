package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	h "campusticketing/internal/delivery/http/helpers"
)

// LimiterConfig configures the per-caller token bucket.
type LimiterConfig struct {
	RPS     float64       // steady refill rate
	Burst   int           // bucket size
	IdleTTL time.Duration // buckets unused for this long are dropped
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller in memory.
type RateLimiter struct {
	conf      LimiterConfig
	mu        sync.Mutex
	buckets   map[string]*keyLimiter
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter returns a limiter. A non-positive RPS disables limiting.
func NewRateLimiter(conf LimiterConfig) *RateLimiter {
	if conf.Burst <= 0 {
		conf.Burst = 1
	}
	if conf.IdleTTL <= 0 {
		conf.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		conf:    conf,
		buckets: make(map[string]*keyLimiter),
		now:     time.Now,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Idle buckets are swept inline at most once per IdleTTL.
	if now.Sub(rl.lastSweep) > rl.conf.IdleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > rl.conf.IdleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rate.Limit(rl.conf.RPS), rl.conf.Burst)
	rl.buckets[key] = &keyLimiter{limiter: lim, lastSeen: now}
	return lim
}

// Limit rejects requests with 429 once the caller's bucket is empty. The caller is the
// authenticated user when RequireAuth ran first, otherwise the client address.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rl.conf.RPS <= 0 {
			next(w, r)
			return
		}
		if !rl.getLimiter(limiterKey(r)).AllowN(rl.now(), 1) {
			w.Header().Set("Retry-After", "1")
			h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeRateLimited, "too many requests, please try again later")
			return
		}
		next(w, r)
	}
}

func limiterKey(r *http.Request) string {
	if caller, ok := CallerFromContext(r.Context()); ok {
		return "user:" + caller.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
