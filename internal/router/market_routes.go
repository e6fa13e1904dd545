package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/handler"
)

// RegisterMarket registers the buy, cart and sell routes. All of them
// require a signed-in user.
func RegisterMarket(e *echo.Echo, d Deps) {
	m := d.Market
	auth := gate(d)

	e.GET("/buy", m.Buy, auth)
	e.POST("/add-to-cart", m.AddToCart, auth)
	e.POST("/remove-from-cart", m.RemoveFromCart, auth)
	e.GET("/cart", m.ViewCart, auth)

	e.GET("/sell", m.Sell, auth)
	e.GET("/sell/new", m.SellNewPage, auth)
	e.POST("/sell/new", m.SellNew, auth)
	e.GET("/sell/remove-listing", m.ToSell, auth)
	e.POST("/sell/remove-listing", m.RemoveListing, auth)

	e.GET("/accessories", handler.Accessories, auth)
}
