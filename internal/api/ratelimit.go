package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/redis"
)

// rateLimitKey buckets authenticated callers per user and anonymous callers
// per IP, scoped to the route so one noisy endpoint cannot starve the rest.
func rateLimitKey(c echo.Context) string {
	if uid, ok := c.Get("user_id").(int64); ok {
		return fmt.Sprintf("ratelimit:user:%d:%s", uid, c.Path())
	}
	return fmt.Sprintf("ratelimit:ip:%s:%s", c.RealIP(), c.Path())
}

// RateLimitMiddleware enforces a fixed-window request limit backed by redis.
// Every response carries X-RateLimit-Limit, X-RateLimit-Remaining, and
// X-RateLimit-Reset; a rejected request additionally carries Retry-After.
// If redis is unreachable the request passes through unlimited.
func RateLimitMiddleware(sessions *redis.Client, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, count, ttlMs, err := sessions.CheckRateLimit(
				c.Request().Context(), rateLimitKey(c), limit, window,
			)
			if err != nil {
				return next(c)
			}

			remaining := max(int64(limit)-count, 0)
			resetAt := time.Now().Add(time.Duration(ttlMs) * time.Millisecond).Unix()

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))

			if !allowed {
				// Round the window remainder up to whole seconds.
				h.Set("Retry-After", strconv.FormatInt((ttlMs+999)/1000, 10))
				return errorJSON(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded, slow down")
			}
			return next(c)
		}
	}
}
