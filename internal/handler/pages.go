package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func Home(c echo.Context) error {
	return c.Render(http.StatusOK, "home", page(c, "Home"))
}

func Accessories(c echo.Context) error {
	return c.Render(http.StatusOK, "accessories", page(c, "Accessories"))
}

// Welcome is a JSON liveness check kept for API clients.
func Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "Welcome!"})
}
