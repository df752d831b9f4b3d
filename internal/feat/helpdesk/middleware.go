package helpdesk

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"

	"github.com/allears/helpdesk/pkg/hd/middleware"
)

// rateLimiter is a sliding-window limiter keyed by client address. Hit times live in an
// expiring cache so idle addresses are dropped without a cleanup goroutine of our own.
type rateLimiter struct {
	mu     sync.Mutex
	hits   *cache.Cache
	limit  int
	window time.Duration
	now    func() time.Time
}

// newRateLimiter allows limit hits per window. Limits below one are raised to one so a
// misconfiguration cannot disable admission control or leave an empty window blocked.
func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		hits:   cache.New(window, 2*window),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// allow records a hit for addr and reports whether it is within the limit. When it is
// not, the returned duration is how long until the oldest hit leaves the window.
func (rl *rateLimiter) allow(addr string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	var valid []time.Time
	if v, ok := rl.hits.Get(addr); ok {
		for _, t := range v.([]time.Time) {
			if t.After(cutoff) {
				valid = append(valid, t)
			}
		}
	}

	if len(valid) > 0 && len(valid) >= rl.limit {
		rl.hits.Set(addr, valid, rl.window)
		return false, valid[0].Add(rl.window).Sub(now)
	}

	rl.hits.Set(addr, append(valid, now), rl.window)
	return true, 0
}

func (h *Handler) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := middleware.GetClientAddress(r.Context())
		if addr == "" {
			addr = middleware.ExtractIP(r, h.cfg.Server.TrustedProxies)
		}
		ok, retry := h.limiter.allow(addr)
		if !ok {
			secs := int(retry.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			h.log.Warnf("Rate limit exceeded for %s", addr)
			h.respondMessage(w, r, http.StatusTooManyRequests, "Too many requests from this address, please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) corsMiddleware() func(http.Handler) http.Handler {
	origins := h.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         600,
	})
}
