package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/orbit-studio/orbit-api/internal/handler"
	"github.com/orbit-studio/orbit-api/internal/middleware"
	"github.com/orbit-studio/orbit-api/internal/model"
	"github.com/orbit-studio/orbit-api/internal/ratelimit"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter *ratelimit.LoginLimiter) {
	g := e.Group("/v1/auth")
	// The limiter gates only the login endpoint; refresh and logout are
	// cheap and carry no brute-forceable credential.
	g.POST("/login", a.Login, middleware.LoginRateLimit(limiter))
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))

	// /v1/me is an alias kept for clients that treat identity as a
	// resource rather than an auth operation
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterAdmin registers capability-guarded management endpoints under
// the protected /v1 prefix.
func RegisterAdmin(e *echo.Echo, u *handler.UserHandler, inv *handler.InvoiceHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	users := g.Group("/users", middleware.RequireCapability(model.CapManageUsers))
	users.GET("", u.List)
	users.POST("", u.Create)
	users.DELETE("/:id", u.Delete)

	invoices := g.Group("/invoices", middleware.RequireCapability(model.CapIssueInvoices))
	invoices.POST("/number", inv.NextNumber)
}
