// Package handler exposes the readiness endpoint for load balancers and CI.
package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger reports backing-store reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTP handles /healthz. Nil pingers are skipped so partial wiring (tests,
// the in-memory setup) still reports healthy.
type HTTP struct {
	db    Pinger
	cache Pinger
}

func NewHTTP(db, cache Pinger) *HTTP {
	return &HTTP{db: db, cache: cache}
}

// Register attaches the health route.
func (h *HTTP) Register(e *echo.Echo) {
	e.GET("/healthz", h.Check)
}

type healthResponse struct {
	Status string `json:"status"`
}

// Check answers 200 when every configured backing store is reachable and
// 503 otherwise.
func (h *HTTP) Check(c echo.Context) error {
	ctx := c.Request().Context()
	for _, p := range []Pinger{h.db, h.cache} {
		if p == nil {
			continue
		}
		if err := p.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
		}
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}
