// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into an audit log.
package queue

// ListingsQueue is the durable queue all marketplace events go to.
const ListingsQueue = "marketplace.listings"

// Event types carried in ListingEvent.Type.
const (
	EventListingCreated = "listing.created"
	EventListingRemoved = "listing.removed"
	EventAccountDeleted = "account.deleted"
)

// ListingEvent is published when a listing appears or disappears or when an
// account (and with it all of its listings) is deleted. Car fields are zero
// for account events.
type ListingEvent struct {
	Type       string  `json:"type"`
	Username   string  `json:"username"`
	CarID      uint64  `json:"car_id,omitempty"`
	Make       string  `json:"make,omitempty"`
	Model      string  `json:"model,omitempty"`
	Price      float64 `json:"price,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}
