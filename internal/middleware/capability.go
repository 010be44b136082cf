package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/orbit-studio/orbit-api/internal/model"
)

// RequireCapability enforces that the authenticated user's role grants
// the given capability. Roles map to capabilities through the fixed
// table in the model package; the role itself comes from the JWT claims
// stored in context by JWTAuth. Authorization failures are 403,
// distinct from the 401 authentication failures.
func RequireCapability(cap model.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !model.Role(role).Can(cap) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
