// Package httpx holds the HTTP response conventions shared by every handler:
// status mapping, plain-text error bodies, session cookies, and the
// authenticated-user context key.
package httpx

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Plain-text bodies paired with each error status. Clients match on these.
const (
	msgBadRequest    = "Bad request"
	msgAlreadyExists = "Already exists"
	msgUnauthorised  = "Unauthorised"
	msgNotFound      = "Not found"
	msgUnexpected    = "Unexpected error"
)

// BadRequest writes 400 "Bad request".
func BadRequest(c echo.Context) error {
	return c.String(http.StatusBadRequest, msgBadRequest)
}

// AlreadyExists writes 400 "Already exists".
func AlreadyExists(c echo.Context) error {
	return c.String(http.StatusBadRequest, msgAlreadyExists)
}

// Unauthorised writes 403 "Unauthorised".
func Unauthorised(c echo.Context) error {
	return c.String(http.StatusForbidden, msgUnauthorised)
}

// NotFound writes 404 "Not found".
func NotFound(c echo.Context) error {
	return c.String(http.StatusNotFound, msgNotFound)
}

// Unexpected writes 500 "Unexpected error". The cause is logged by the
// request logger, never sent to the client.
func Unexpected(c echo.Context) error {
	return c.String(http.StatusInternalServerError, msgUnexpected)
}

// NoContent writes 204.
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Created writes 201 with an empty body.
func Created(c echo.Context) error {
	return c.NoContent(http.StatusCreated)
}

// OK writes 200 with an empty body.
func OK(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
