package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/FieldScope/FS-Backend/internal/utils"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per user so a single contributor
// hammering the submit endpoint can't starve everyone else. Buckets for
// users idle longer than the stale window are dropped on the next sweep.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*userBucket
	limit    rate.Limit
	burst    int
	lastSeen time.Duration
}

type userBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func NewRateLimiter(perMinute int, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*userBucket),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		lastSeen: 10 * time.Minute,
	}
}

func (rl *RateLimiter) allow(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[userID]
	if !ok {
		b = &userBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[userID] = b

		// Sweep stale buckets while we hold the lock; the map stays small
		// (one entry per recently active user).
		for id, old := range rl.buckets {
			if now.Sub(old.seen) > rl.lastSeen {
				delete(rl.buckets, id)
			}
		}
	}
	b.seen = now
	return b.limiter.Allow()
}

// Middleware rejects over-limit requests with 429. Must run after
// SessionMiddleware so the user ID is already in the context.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := utils.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
			return
		}

		if !rl.allow(userID) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too many submissions, slow down", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
