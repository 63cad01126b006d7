// Package server assembles the echo HTTP server: middleware, routes, and
// lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	authhandler "ordayna/backend/internal/auth/handler"
	"ordayna/backend/internal/auth/service"
	healthhandler "ordayna/backend/internal/health/handler"
	homeworkhandler "ordayna/backend/internal/homework/handler"
	institutionhandler "ordayna/backend/internal/institution/handler"
	schoolhandler "ordayna/backend/internal/school/handler"
	timetablehandler "ordayna/backend/internal/timetable/handler"
	userhandler "ordayna/backend/internal/user/handler"
)

// Deps holds the handlers and services the server wires up.
type Deps struct {
	Auth         *service.AuthService
	AuthHandler  *authhandler.HTTP
	UserHandler  *userhandler.HTTP
	Institutions *institutionhandler.HTTP
	School       *schoolhandler.HTTP
	Timetable    *timetablehandler.HTTP
	Homework     *homeworkhandler.HTTP
	Health       *healthhandler.HTTP
	// Meter is optional; when set, request metrics are recorded on it.
	Meter metric.Meter
}

// Server wraps echo with graceful lifecycle handling.
type Server struct {
	echo *echo.Echo
	addr string
	log  zerolog.Logger
}

// New builds the server and registers every route.
func New(addr string, deps Deps, log zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(RequestLogger(log))
	if deps.Meter != nil {
		metrics, err := Metrics(deps.Meter)
		if err != nil {
			return nil, err
		}
		e.Use(metrics)
	}

	authed := RequireAuth(deps.Auth)

	deps.AuthHandler.Register(e)
	deps.UserHandler.Register(e, authed)
	deps.Institutions.Register(e, authed)
	deps.School.Register(e, authed)
	deps.Timetable.Register(e, authed)
	deps.Homework.Register(e, authed)
	deps.Health.Register(e)

	return &Server{echo: e, addr: addr, log: log}, nil
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to ten seconds.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", s.addr).Msg("http server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}
