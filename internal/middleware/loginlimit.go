package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/orbit-studio/orbit-api/internal/ratelimit"
)

// ClientIP returns the caller's address for rate-limit accounting. When
// echo cannot determine one, a fixed key keeps the limiter's Check and
// the handler's Reset pointed at the same entry.
func ClientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// LoginRateLimit gates the login endpoint with the fixed-window limiter.
// The gate runs before credential verification; the handler clears the
// caller's entry after a successful login.
func LoginRateLimit(limiter *ratelimit.LoginLimiter) echo.MiddlewareFunc {
	if limiter == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, retryAfter := limiter.Check(ClientIP(c))
			if !allowed {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":      "too many login attempts",
					"retryAfter": retryAfter,
				})
			}
			return next(c)
		}
	}
}
