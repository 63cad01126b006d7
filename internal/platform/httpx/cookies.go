package httpx

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Session cookie names and fixed paths. The refresh token is scoped to the
// token endpoints so it is never sent with ordinary API requests.
const (
	RefreshCookieName = "RefreshToken"
	RefreshCookiePath = "/token"
	AccessCookieName  = "AccessToken"
	AccessCookiePath  = "/"
)

// SetSessionCookie sets a session token cookie: HttpOnly, SameSite=Strict,
// Max-Age equal to the token lifetime. secure should be false only in local
// development over plain HTTP.
func SetSessionCookie(c echo.Context, name, path, token string, maxAge time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    token,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires a session cookie immediately.
func ClearSessionCookie(c echo.Context, name, path string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearAllSessionCookies expires both session cookies, used when a session
// is ended server-side.
func ClearAllSessionCookies(c echo.Context, secure bool) {
	ClearSessionCookie(c, RefreshCookieName, RefreshCookiePath, secure)
	ClearSessionCookie(c, AccessCookieName, AccessCookiePath, secure)
}
