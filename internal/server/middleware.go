package server

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/auth/service"
	"ordayna/backend/internal/platform/httpx"
)

// RequireAuth returns middleware that validates the AccessToken cookie and
// puts the user ID on the request context. A missing cookie answers 400,
// matching the malformed-token case; a bad token answers 403.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(httpx.AccessCookieName)
			if err != nil || cookie.Value == "" {
				return httpx.BadRequest(c)
			}

			userID, err := auth.Authenticate(c.Request().Context(), cookie.Value)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrMalformedToken):
					return httpx.BadRequest(c)
				case errors.Is(err, service.ErrUnauthorised):
					return httpx.Unauthorised(c)
				default:
					return httpx.Unexpected(c)
				}
			}

			httpx.SetUserID(c, userID)
			return next(c)
		}
	}
}

// RequestLogger returns middleware that logs one line per request.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Str("ip", c.RealIP()).
				Msg("request")
			return err
		}
	}
}
