package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/session"
)

// LoadSession resolves the session cookie for every request and stores the
// username on the context. Requests without a valid session pass through
// anonymously.
func LoadSession(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if u, ok := m.Current(c.Request()); ok {
				c.Set(principalKey, u)
			}
			return next(c)
		}
	}
}
