package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/car-marketplace/internal/metrics"
	q "github.com/iliyamo/car-marketplace/internal/queue"
)

// EventPublisher delivers marketplace events. Implementations must not
// panic; handlers log and otherwise ignore the returned error.
type EventPublisher interface {
	Publish(ctx context.Context, ev q.ListingEvent) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, q.ListingEvent) error { return nil }

// ListingEvents publishes to RabbitMQ, opening a connection per event.
// Event volume is one message per listing change, so a pooled connection
// is not worth its reconnect handling.
type ListingEvents struct {
	URL         string
	DialTimeout time.Duration
}

// NewListingEvents returns a RabbitMQ publisher, or a NopPublisher when url
// is empty.
func NewListingEvents(url string) EventPublisher {
	if url == "" {
		return NopPublisher{}
	}
	return &ListingEvents{URL: url, DialTimeout: 2 * time.Second}
}

// Publish sends ev to the marketplace.listings queue. Any error is logged and
// returned so the caller can choose to ignore it. Messages are persistent.
func (p *ListingEvents) Publish(ctx context.Context, ev q.ListingEvent) error {
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	err := p.publish(ctx, ev)
	status := "sent"
	if err != nil {
		status = "failed"
	}
	metrics.EventsPublished.WithLabelValues(ev.Type, status).Inc()
	return err
}

func (p *ListingEvents) publish(ctx context.Context, ev q.ListingEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.DialTimeout)})
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.ListingsQueue, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.ListingsQueue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
