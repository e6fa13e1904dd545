package middleware

import "github.com/labstack/echo/v4"

// principalKey is the echo.Context key holding the signed-in username.
const principalKey = "username"

// Username returns the principal LoadSession put on the context.
func Username(c echo.Context) (string, bool) {
	u, ok := c.Get(principalKey).(string)
	return u, ok && u != ""
}

// principal is Username for log lines: "guest" when nobody is signed in.
func principal(c echo.Context) string {
	if u, ok := Username(c); ok {
		return u
	}
	return "guest"
}
