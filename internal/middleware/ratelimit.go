package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitPolicy is a fixed-window budget for requests whose path starts with Prefix.
// An empty Prefix matches every path.
type RateLimitPolicy struct {
	Name     string
	Prefix   string
	Requests int
	Window   time.Duration
}

// RateLimiter counts requests per client IP in Redis. It runs before authentication,
// so callers are identified by address only.
type RateLimiter struct {
	client    *redis.Client
	keyPrefix string
	policies  []RateLimitPolicy
	logger    *zap.Logger
}

// NewRateLimiter builds a limiter. Policies are matched in order; put the catch-all last.
func NewRateLimiter(client *redis.Client, keyPrefix string, logger *zap.Logger, policies ...RateLimitPolicy) *RateLimiter {
	return &RateLimiter{client: client, keyPrefix: keyPrefix, policies: policies, logger: logger}
}

func (l *RateLimiter) policyFor(path string) (RateLimitPolicy, bool) {
	for _, p := range l.policies {
		if strings.HasPrefix(path, p.Prefix) {
			return p, true
		}
	}
	return RateLimitPolicy{}, false
}

// Middleware rejects requests over budget with 429. Redis failures let the request through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		policy, ok := l.policyFor(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		client := clientIP(r)
		key := l.keyPrefix + ":" + policy.Name + ":" + client
		ctx := r.Context()

		var (
			incr *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.PTTL(ctx, key)
			return nil
		})
		if err != nil {
			l.logger.Error("Failed to count request for rate limiting",
				zap.Error(err),
				zap.String("key", key),
			)
			next.ServeHTTP(w, r)
			return
		}

		// A key without expiry is new or lost its TTL; start the window now.
		reset := ttl.Val()
		if reset <= 0 {
			reset = policy.Window
			if err := l.client.Expire(ctx, key, policy.Window).Err(); err != nil {
				l.logger.Warn("Failed to set rate limit window", zap.Error(err), zap.String("key", key))
			}
		}

		count := incr.Val()
		limit := strconv.Itoa(policy.Requests)
		w.Header().Set("X-RateLimit-Limit", limit)

		if count > int64(policy.Requests) {
			l.logger.Warn("Rate limit exceeded",
				zap.String("policy", policy.Name),
				zap.String("client", client),
				zap.Int64("count", count),
			)

			seconds := int(reset.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))

			RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(policy.Requests)-count, 10))
		next.ServeHTTP(w, r)
	})
}

// clientIP drops the port so that a client's connections share one counter.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
