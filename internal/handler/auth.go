package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/orbit-studio/orbit-api/internal/auth"
	"github.com/orbit-studio/orbit-api/internal/config"
	"github.com/orbit-studio/orbit-api/internal/middleware"
	"github.com/orbit-studio/orbit-api/internal/model"
	"github.com/orbit-studio/orbit-api/internal/ratelimit"
	"github.com/orbit-studio/orbit-api/internal/repository"
	"github.com/orbit-studio/orbit-api/internal/service"
)

// errInvalidCredentials is the single message returned for unknown
// emails and wrong passwords alike, so callers cannot enumerate
// accounts.
const errInvalidCredentials = "Invalid email or password"

// errInvalidRefresh covers unknown, revoked and expired refresh tokens
// uniformly.
const errInvalidRefresh = "Invalid or expired refresh token"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Tokens  *repository.TokenRepo
	Audit   *service.AuditLogger
	Limiter *ratelimit.LoginLimiter
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo,
	a *service.AuditLogger, l *ratelimit.LoginLimiter) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Audit: a, Limiter: l}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type userPart struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
type loginResp struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int      `json:"expiresIn"`
	User         userPart `json:"user"`
}
type refreshResp struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role)}
}

// audit builds the common fields of an audit event from the request.
func (h *AuthHandler) audit(c echo.Context, eventType string, userID *int64, email string, success bool, details string) {
	h.Audit.Record(c.Request().Context(), model.AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Success:   success,
		Details:   details,
	})
}

// Login verifies credentials and returns a fresh access/refresh pair.
// The rate limiter middleware has already gated this request; a
// successful login clears the caller's window.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		h.audit(c, model.EventLoginFailure, nil, req.Email, false, "missing credentials")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			h.audit(c, model.EventLoginFailure, nil, req.Email, false, "user not found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": errInvalidCredentials})
		}
		h.audit(c, model.EventError, nil, req.Email, false, "user lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		h.audit(c, model.EventLoginFailure, &u.ID, u.Email, false, "wrong password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": errInvalidCredentials})
	}

	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u, h.Cfg.AccessTTLMin)
	if err != nil {
		h.audit(c, model.EventError, &u.ID, u.Email, false, "issue access failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	refresh, err := auth.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		h.audit(c, model.EventError, &u.ID, u.Email, false, "issue refresh failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	// Revoke-then-insert runs in one transaction: a new login invalidates
	// every older session's refresh capability.
	if err := h.Tokens.Issue(ctx, u.ID, refresh.Raw, refresh.Exp); err != nil {
		h.audit(c, model.EventError, &u.ID, u.Email, false, "save refresh failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if h.Limiter != nil {
		h.Limiter.Reset(middleware.ClientIP(c))
	}
	h.audit(c, model.EventLoginSuccess, &u.ID, u.Email, true, "")

	return c.JSON(http.StatusOK, loginResp{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		ExpiresIn:    h.Cfg.AccessTTLMin * 60,
		User:         toUserPart(u),
	})
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated. Claims are re-read from the
// user's current state, not copied from the old token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken is required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.Validate(ctx, raw)
	if err != nil {
		h.audit(c, model.EventRefreshFailure, nil, "", false, "invalid refresh token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": errInvalidRefresh})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			h.audit(c, model.EventRefreshFailure, &userID, "", false, "user gone")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": errInvalidRefresh})
		}
		h.audit(c, model.EventError, &userID, "", false, "user lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u, h.Cfg.AccessTTLMin)
	if err != nil {
		h.audit(c, model.EventError, &u.ID, u.Email, false, "issue access failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	h.audit(c, model.EventRefreshSuccess, &u.ID, u.Email, true, "")
	return c.JSON(http.StatusOK, refreshResp{
		AccessToken: access.Token,
		ExpiresIn:   h.Cfg.AccessTTLMin * 60,
	})
}

// Logout revokes the submitted refresh token. Unknown or already-revoked
// tokens still produce a success response, so a double logout never
// errors and nothing leaks about token validity.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if raw != "" {
		if err := h.Tokens.Revoke(ctx, raw); err != nil {
			h.audit(c, model.EventError, nil, "", false, "revoke failed")
		}
	}
	h.audit(c, model.EventLogout, nil, "", true, "")
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the authenticated identity from the JWT claims.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, _ := c.Get(middleware.CtxUserID).(int64)
	email, _ := c.Get(middleware.CtxEmail).(string)
	name, _ := c.Get(middleware.CtxName).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	return c.JSON(http.StatusOK, echo.Map{
		"user": userPart{ID: uid, Email: email, Name: name, Role: role},
	})
}
