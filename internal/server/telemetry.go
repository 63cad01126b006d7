package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics returns middleware that records a request counter and a latency
// histogram on the given meter. Route path (not the raw URL) keys the
// attributes so cardinality stays bounded.
func Metrics(meter metric.Meter) (echo.MiddlewareFunc, error) {
	requests, err := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Count of handled HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			attrs := metric.WithAttributes(
				attribute.String("http.method", c.Request().Method),
				attribute.String("http.route", c.Path()),
				attribute.Int("http.status_code", c.Response().Status),
			)
			ctx := c.Request().Context()
			requests.Add(ctx, 1, attrs)
			latency.Record(ctx, float64(time.Since(start).Microseconds())/1000.0, attrs)
			return err
		}
	}, nil
}
