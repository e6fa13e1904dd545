package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/car-marketplace/internal/metrics"
)

// Consumer reads marketplace.listings and appends one line per event to an
// audit log file.
type Consumer struct {
	URL     string
	LogPath string

	// Dial opens the broker connection. Defaults to amqp.Dial.
	Dial func(url string) (*amqp.Connection, error)
}

// Run connects to RabbitMQ and consumes until ctx is cancelled. Broker
// failures are retried with exponential backoff capped at 30s. Messages
// that cannot be handled are rejected without requeue so a bad payload
// cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
	dial := c.Dial
	if dial == nil {
		dial = amqp.Dial
	}
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := dial(c.URL)
		if err != nil {
			log.Printf("listing-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("listing-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("listing-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(ListingsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ListingsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	return c.deliver(ctx, msgs)
}

// deliver handles messages from msgs until ctx is done or msgs is closed.
// Each delivery is acked once its line is written and nacked without
// requeue otherwise.
func (c *Consumer) deliver(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				log.Printf("listing-consumer: handle message failed: %v", err)
				metrics.EventsConsumed.WithLabelValues("rejected").Inc()
				_ = d.Nack(false, false)
				continue
			}
			metrics.EventsConsumed.WithLabelValues("ok").Inc()
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev ListingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single audit log line.
func FormatLine(ev ListingEvent) string {
	switch ev.Type {
	case EventAccountDeleted:
		return fmt.Sprintf("[%s] %s | username=%q\n", ev.OccurredAt, ev.Type, ev.Username)
	default:
		return fmt.Sprintf("[%s] %s | car_id=%d | owner=%q | make=%q | model=%q | price=%.2f\n",
			ev.OccurredAt, ev.Type, ev.CarID, ev.Username, ev.Make, ev.Model, ev.Price)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
