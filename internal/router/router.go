// Package router builds the echo instance and registers every route.
package router

import (
	"log"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/car-marketplace/internal/handler"
	"github.com/iliyamo/car-marketplace/internal/metrics"
	"github.com/iliyamo/car-marketplace/internal/middleware"
	"github.com/iliyamo/car-marketplace/internal/session"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Auth     *handler.AuthHandler
	Market   *handler.MarketHandler
	Users    middleware.UserChecker
	Sessions *session.Manager
	// TestHooks enables POST /deleteProfileTest.
	TestHooks bool
	// AccessLog turns on the per-request log line.
	AccessLog bool
}

// New returns an echo instance with the renderer, global middleware and all
// routes in place.
func New(d Deps) (*echo.Echo, error) {
	r, err := handler.NewRenderer()
	if err != nil {
		return nil, err
	}
	e := echo.New()
	e.HideBanner = true
	e.Renderer = r

	if d.AccessLog {
		e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
			LogMethod:  true,
			LogURI:     true,
			LogStatus:  true,
			LogLatency: true,
			LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
				log.Printf("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
				return nil
			},
		}))
	}
	e.Use(echomw.Recover())
	e.Use(metrics.Middleware())
	e.Use(middleware.LoadSession(d.Sessions))

	RegisterRoutes(e)
	RegisterAccount(e, d)
	RegisterMarket(e, d)
	return e, nil
}

// RegisterRoutes registers the routes that need no session.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", metrics.Handler())
	e.GET("/welcome", handler.Welcome)
}

// gate returns the RequireUser middleware for d.
func gate(d Deps) echo.MiddlewareFunc {
	return middleware.RequireUser(d.Users, d.Sessions, handler.Unauthorized)
}
