package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/groupsub/groupsub/internal/cache"
	"github.com/groupsub/groupsub/internal/metrics"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Cache   *cache.Cache
	Metrics metrics.Recorder

	Enabled bool
	RPS     int // requests per second per client IP
	Burst   int
}

// RateLimitIP returns middleware that rate limits requests per client IP.
// Applied to the subscribe form to keep one client from flooding the
// forum's mail-ingestion endpoint. Fails open on limiter errors.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.Cache == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)

			result, err := cfg.Cache.CheckIPRateLimit(r.Context(), ip, cfg.RPS, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("ip", ip),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
				)
				if cfg.Metrics != nil {
					cfg.Metrics.IncRateLimited()
				}

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client address. chi's RealIP middleware has
// already folded X-Forwarded-For into RemoteAddr when trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
