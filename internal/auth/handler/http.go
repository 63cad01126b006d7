// Package handler exposes the session endpoints: login, refresh rotation,
// and access token minting. Tokens travel only in cookies.
package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/audit"
	"ordayna/backend/internal/auth/service"
	"ordayna/backend/internal/platform/httpx"
	userdomain "ordayna/backend/internal/user/domain"
)

// HTTP handles the /token endpoints.
type HTTP struct {
	auth   *service.AuthService
	audit  *audit.Logger
	secure bool
	log    zerolog.Logger
}

// NewHTTP wires the token handler. secure controls the cookies' Secure flag.
func NewHTTP(auth *service.AuthService, auditLog *audit.Logger, secure bool, log zerolog.Logger) *HTTP {
	return &HTTP{auth: auth, audit: auditLog, secure: secure, log: log}
}

// Register attaches the token routes.
func (h *HTTP) Register(e *echo.Echo) {
	e.POST("/token/get_refresh_token", h.GetRefreshToken)
	e.GET("/token/refresh_refresh_token", h.RefreshRefreshToken)
	e.GET("/token/get_access_token", h.GetAccessToken)
}

type loginRequest struct {
	Email string `json:"email"`
	Pass  string `json:"pass"`
}

// GetRefreshToken verifies credentials and starts a session by setting the
// RefreshToken cookie.
func (h *HTTP) GetRefreshToken(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest(c)
	}
	if err := userdomain.ValidateEmail(req.Email); err != nil {
		return httpx.BadRequest(c)
	}
	if err := userdomain.ValidatePassword(req.Pass); err != nil {
		return httpx.BadRequest(c)
	}

	issued, err := h.auth.Login(c.Request().Context(), req.Email, req.Pass)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			h.audit.LogEvent(c.Request().Context(), 0, "login_failure", "session", c.RealIP(), req.Email)
			return httpx.NotFound(c)
		case errors.Is(err, service.ErrUnauthorised):
			h.audit.LogEvent(c.Request().Context(), 0, "login_failure", "session", c.RealIP(), req.Email)
			return httpx.Unauthorised(c)
		}
		h.log.Error().Err(err).Msg("login failed")
		return httpx.Unexpected(c)
	}

	h.audit.LogEvent(c.Request().Context(), 0, "login_success", "session", c.RealIP(), req.Email)
	httpx.SetSessionCookie(c, httpx.RefreshCookieName, httpx.RefreshCookiePath, issued.Token, issued.MaxAge, h.secure)
	return httpx.OK(c)
}

// RefreshRefreshToken rotates the refresh token: the caller gets a fresh
// cookie and the presented token is revoked.
func (h *HTTP) RefreshRefreshToken(c echo.Context) error {
	token, err := refreshCookie(c)
	if err != nil {
		return httpx.BadRequest(c)
	}

	issued, err := h.auth.RotateRefresh(c.Request().Context(), token)
	if err != nil {
		return h.tokenError(c, err, "refresh rotation failed")
	}

	httpx.SetSessionCookie(c, httpx.RefreshCookieName, httpx.RefreshCookiePath, issued.Token, issued.MaxAge, h.secure)
	return httpx.OK(c)
}

// GetAccessToken mints an access token from the refresh cookie and sets it
// as the AccessToken cookie.
func (h *HTTP) GetAccessToken(c echo.Context) error {
	token, err := refreshCookie(c)
	if err != nil {
		return httpx.BadRequest(c)
	}

	issued, err := h.auth.IssueAccess(c.Request().Context(), token)
	if err != nil {
		return h.tokenError(c, err, "access issuance failed")
	}

	httpx.SetSessionCookie(c, httpx.AccessCookieName, httpx.AccessCookiePath, issued.Token, issued.MaxAge, h.secure)
	return httpx.OK(c)
}

func refreshCookie(c echo.Context) (string, error) {
	cookie, err := c.Cookie(httpx.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", errors.New("missing refresh cookie")
	}
	return cookie.Value, nil
}

func (h *HTTP) tokenError(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, service.ErrMalformedToken):
		return httpx.BadRequest(c)
	case errors.Is(err, service.ErrUnauthorised):
		return httpx.Unauthorised(c)
	default:
		h.log.Error().Err(err).Msg(msg)
		return httpx.Unexpected(c)
	}
}
