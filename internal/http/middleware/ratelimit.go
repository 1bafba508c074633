package middleware

import (
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig config for Redis-based per-sender limiter.
type RateLimitConfig struct {
	Redis          *redis.Client
	Max            int                     // messages per window; <= 0 disables
	KeyPrefix      string                  // e.g. "rl:sender:"
	Window         time.Duration           // usually 1s
	KeyFunc        func(echo.Context) string // sender identity; empty key skips limiting
	RetryAfterHint bool                    // set Retry-After header when limited
}

// RateLimitMiddleware applies a simple fixed-window limit per key.
// Redis errors fail open: a broken limiter never blocks conversations.
func RateLimitMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:sender:"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Max <= 0 || cfg.Redis == nil || cfg.KeyFunc == nil {
				return next(c)
			}
			id := cfg.KeyFunc(c)
			if id == "" {
				return next(c)
			}

			// fixed-window key: rl:sender:{id}:{window index}
			now := time.Now()
			slot := now.UnixNano() / int64(cfg.Window)
			key := cfg.KeyPrefix + id + ":" + strconv.FormatInt(slot, 10)

			ctx := c.Request().Context()
			pipe := cfg.Redis.Pipeline()
			cnt := pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, cfg.Window*2)
			if _, err := pipe.Exec(ctx); err != nil {
				return next(c)
			}

			if cnt.Val() > int64(cfg.Max) {
				if cfg.RetryAfterHint {
					remain := cfg.Window - time.Duration(now.UnixNano()%int64(cfg.Window))
					secs := int((remain + time.Second - 1) / time.Second)
					c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				}
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			}
			return next(c)
		}
	}
}
