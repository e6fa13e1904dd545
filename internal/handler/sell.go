package handler

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/queue"
	"github.com/iliyamo/car-marketplace/internal/repository"
)

// Sell lists the signed-in user's own cars.
func (h *MarketHandler) Sell(c echo.Context) error {
	p := page(c, "Sell")

	ctx, cancel := dbContext(c)
	defer cancel()

	cars, err := h.Cars.ListByOwner(ctx, p.Username)
	if err != nil {
		log.Printf("sell: list for %s failed: %v", p.Username, err)
		p.Error, p.Message = true, errMessages["failed"]
		return c.Render(http.StatusInternalServerError, "sell", p)
	}
	p.Cars = cars
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, cars)
	}
	return c.Render(http.StatusOK, "sell", p)
}

func (h *MarketHandler) SellNewPage(c echo.Context) error {
	return c.Render(http.StatusOK, "sell_new", page(c, "List a car"))
}

// ToSell answers GET /sell/remove-listing.
func (h *MarketHandler) ToSell(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/sell")
}

// listingFromForm reads the sell form. Make, model and a positive price are
// required; miles defaults to 0. The description may also arrive as
// car_description.
func listingFromForm(c echo.Context) (model.Car, bool) {
	car := model.Car{
		Make:        strings.TrimSpace(c.FormValue("make")),
		Model:       strings.TrimSpace(c.FormValue("model")),
		Color:       strings.TrimSpace(c.FormValue("color")),
		Description: strings.TrimSpace(c.FormValue("description")),
	}
	if car.Description == "" {
		car.Description = strings.TrimSpace(c.FormValue("car_description"))
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("price")), 64)
	if err != nil || price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return car, false
	}
	car.Price = price
	if raw := strings.TrimSpace(c.FormValue("miles")); raw != "" {
		miles, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || miles < 0 {
			return car, false
		}
		car.Miles = miles
	}
	return car, car.Make != "" && car.Model != ""
}

// SellNew creates a listing owned by the signed-in user.
func (h *MarketHandler) SellNew(c echo.Context) error {
	car, ok := listingFromForm(c)
	if !ok {
		return seeOther(c, "/sell/new?err=invalid")
	}
	car.OwnerUsername = username(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Cars.Create(ctx, &car); err != nil {
		if errors.Is(err, repository.ErrInvalidInput) {
			return seeOther(c, "/sell/new?err=invalid")
		}
		log.Printf("sell: create listing for %s failed: %v", car.OwnerUsername, err)
		return seeOther(c, "/sell/new?err=failed")
	}
	h.publish(c, queue.EventListingCreated, car)
	return seeOther(c, "/sell")
}

// RemoveListing deletes one of the signed-in user's listings. Someone
// else's car, or one that does not exist, is reported as not found.
func (h *MarketHandler) RemoveListing(c echo.Context) error {
	id, ok := parseID(c.FormValue("car_id"))
	if !ok {
		return seeOther(c, "/sell?err=invalid")
	}
	user := username(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	car, err := h.Cars.GetByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("sell: load car %d failed: %v", id, err)
	}
	if err := h.Cars.DeleteByIDAndOwner(ctx, id, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return seeOther(c, "/sell?err=not_found")
		}
		log.Printf("sell: remove car %d for %s failed: %v", id, user, err)
		return seeOther(c, "/sell?err=failed")
	}
	car.ID, car.OwnerUsername = id, user
	h.publish(c, queue.EventListingRemoved, car)
	return seeOther(c, "/sell")
}

func (h *MarketHandler) publish(c echo.Context, typ string, car model.Car) {
	ctx, cancel := dbContext(c)
	defer cancel()
	_ = h.Events.Publish(ctx, queue.ListingEvent{
		Type:       typ,
		Username:   car.OwnerUsername,
		CarID:      car.ID,
		Make:       car.Make,
		Model:      car.Model,
		Price:      car.Price,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
