// Package handler contains the HTTP handlers for the marketplace pages and
// their JSON variants.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/middleware"
)

const dbTimeout = 5 * time.Second

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// wantsJSON reports whether the client sent JSON or prefers a JSON reply.
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return true
	}
	accept := req.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}

// page builds the template data for the current principal, turning an
// ?err= flag into an error message.
func page(c echo.Context, title string) Page {
	p := Page{Title: title}
	p.Username, _ = middleware.Username(c)
	if flag := c.QueryParam("err"); flag != "" {
		p.Error = true
		p.Message = errMessages[flag]
		if p.Message == "" {
			p.Message = errMessages["failed"]
		}
	}
	return p
}

// fail answers a validation or auth failure with status. JSON clients get
// {"error": msg}; browsers get the named page with msg shown as an error.
func fail(c echo.Context, status int, tmpl, title, msg string) error {
	if wantsJSON(c) {
		return c.JSON(status, echo.Map{"error": msg})
	}
	p := page(c, title)
	p.Error = true
	p.Message = msg
	return c.Render(status, tmpl, p)
}

// seeOther redirects a form POST with 303 so the browser follows with GET.
func seeOther(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}

// Unauthorized is the response for gated routes without a principal.
func Unauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "login", "Log in", "You must be signed in to view listings")
}
