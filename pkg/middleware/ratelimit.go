package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// RateLimitConfig sizes a per-session token bucket.
type RateLimitConfig struct {
	// Every is the refill interval of one token.
	Every time.Duration
	Burst int
	// MaxKeys bounds how many sessions are tracked; idle ones expire after
	// Idle.
	MaxKeys int
	Idle    time.Duration
}

// RateLimit enforces a token bucket per storefront session, or per client
// address when no session was resolved. Requests over the limit get 429.
func RateLimit(cfg RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 10 * time.Minute
	}
	limiters := expirable.NewLRU[string, *rate.Limiter](cfg.MaxKeys, nil, cfg.Idle)
	retryAfter := strconv.Itoa(max(1, int(cfg.Every.Round(time.Second)/time.Second)))

	limiterFor := func(key string) *rate.Limiter {
		if l, ok := limiters.Get(key); ok {
			return l
		}
		l := rate.NewLimiter(rate.Every(cfg.Every), cfg.Burst)
		limiters.Add(key, l)
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := SessionIDFromContext(r.Context())
			if key == "" {
				key = remoteHost(r)
			}

			if !limiterFor(key).Allow() {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("key", key),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"too many requests","retryable":true}}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
