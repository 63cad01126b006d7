package httpx

import "github.com/labstack/echo/v4"

// userIDKey is the echo context key the auth middleware stores the
// authenticated user's ID under.
const userIDKey = "auth.user_id"

// SetUserID stores the authenticated user's ID on the request context.
func SetUserID(c echo.Context, userID int64) {
	c.Set(userIDKey, userID)
}

// UserID returns the authenticated user's ID set by the auth middleware.
// ok is false on routes that skipped authentication.
func UserID(c echo.Context) (int64, bool) {
	v, ok := c.Get(userIDKey).(int64)
	return v, ok
}
