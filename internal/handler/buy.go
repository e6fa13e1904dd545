package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/repository"
)

// Buy lists every car in random order, optionally filtered by ?q= on make
// or model.
func (h *MarketHandler) Buy(c echo.Context) error {
	p := page(c, "Buy")
	p.Query = strings.TrimSpace(c.QueryParam("q"))

	ctx, cancel := dbContext(c)
	defer cancel()

	cars, err := h.Cars.ListAll(ctx, p.Query)
	if err != nil {
		log.Printf("buy: list cars failed: %v", err)
		p.Error, p.Message = true, errMessages["failed"]
		return c.Render(http.StatusInternalServerError, "buy", p)
	}
	p.Cars = cars
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, cars)
	}
	return c.Render(http.StatusOK, "buy", p)
}

// AddToCart puts car_id in the signed-in user's cart.
func (h *MarketHandler) AddToCart(c echo.Context) error {
	id, ok := parseID(c.FormValue("car_id"))
	if !ok {
		return seeOther(c, "/buy?err=invalid")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	user := username(c)
	if err := h.Cart.Add(ctx, user, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return seeOther(c, "/buy?err=not_found")
		}
		log.Printf("cart: add car %d for %s failed: %v", id, user, err)
		return seeOther(c, "/buy?err=failed")
	}
	return seeOther(c, "/buy")
}

// RemoveFromCart drops every cart row for car_id. Removing a car that is
// not in the cart is not an error.
func (h *MarketHandler) RemoveFromCart(c echo.Context) error {
	id, ok := parseID(c.FormValue("car_id"))
	if !ok {
		return seeOther(c, "/cart?err=invalid")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	user := username(c)
	if err := h.Cart.Remove(ctx, user, id); err != nil {
		log.Printf("cart: remove car %d for %s failed: %v", id, user, err)
		return seeOther(c, "/cart?err=failed")
	}
	return seeOther(c, "/cart")
}

func (h *MarketHandler) ViewCart(c echo.Context) error {
	p := page(c, "Cart")

	ctx, cancel := dbContext(c)
	defer cancel()

	cars, err := h.Cart.ListForUser(ctx, p.Username)
	if err != nil {
		log.Printf("cart: list for %s failed: %v", p.Username, err)
		p.Error, p.Message = true, errMessages["failed"]
		return c.Render(http.StatusInternalServerError, "cart", p)
	}
	p.Cars = cars
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, cars)
	}
	return c.Render(http.StatusOK, "cart", p)
}
