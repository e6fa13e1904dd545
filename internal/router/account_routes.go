package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/handler"
)

// RegisterAccount registers login, registration, logout and profile routes.
func RegisterAccount(e *echo.Echo, d Deps) {
	a := d.Auth
	auth := gate(d)

	e.GET("/login", a.LoginPage)
	e.GET("/login/invalid_request", a.LoginInvalidRequest)
	e.GET("/login/failed", a.LoginFailed)
	e.POST("/login", a.Login)
	e.GET("/register", a.RegisterPage)
	e.POST("/register", a.Register)

	e.GET("/", handler.Home, auth)
	e.GET("/home", handler.Home, auth)
	e.GET("/logout", a.Logout, auth)
	e.GET("/profile", a.Profile, auth)
	e.POST("/profile/delete", a.DeleteProfile, auth)
	e.GET("/profile/delete", a.ToProfile, auth)
	e.POST("/profile/changePassword", a.ChangePassword, auth)
	e.GET("/profile/changePassword", a.ToProfile, auth)

	if d.TestHooks {
		e.POST("/deleteProfileTest", a.DeleteProfileTest)
	}
}
