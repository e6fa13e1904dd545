package handler

import (
	"strconv"
	"strings"

	"github.com/iliyamo/car-marketplace/internal/repository"
	"github.com/iliyamo/car-marketplace/internal/service"
)

// MarketHandler serves the buy, cart and sell pages.
type MarketHandler struct {
	Cars   *repository.CarRepo
	Cart   *repository.CartRepo
	Events service.EventPublisher
}

func NewMarketHandler(cars *repository.CarRepo, cart *repository.CartRepo, events service.EventPublisher) *MarketHandler {
	if cars == nil || cart == nil {
		panic("nil repository passed to NewMarketHandler")
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	return &MarketHandler{Cars: cars, Cart: cart, Events: events}
}

// parseID parses a positive car id from a form value.
func parseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	return id, err == nil && id > 0
}
