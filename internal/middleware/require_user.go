package middleware

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/session"
)

// UserChecker reports whether an account still exists.
type UserChecker interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// RequireUser gates a route on a signed-in principal. deny writes the
// response when there is none (the handlers answer 401 with the login
// prompt).
//
// A session whose user row has since been deleted is destroyed and treated
// as absent. If the existence check itself fails the request proceeds and
// the handler's own queries report the outage.
func RequireUser(users UserChecker, m *session.Manager, deny echo.HandlerFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := Username(c)
			if !ok {
				return deny(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			exists, err := users.Exists(ctx, u)
			cancel()
			if err != nil {
				log.Printf("auth: existence check for %s failed: %v", principal(c), err)
				return next(c)
			}
			if !exists {
				_ = m.Destroy(c.Response(), c.Request())
				c.Set(principalKey, "")
				return deny(c)
			}
			return next(c)
		}
	}
}
