// Package service holds application services that sit between the HTTP
// handlers and the repositories: the booking event publisher and the
// profile service.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-booking/internal/model"
	q "github.com/iliyamo/cinema-booking/internal/queue"
)

// Publisher sends booking events to RabbitMQ.  Errors are logged and
// returned so callers can ignore failures without interrupting the
// request.  Each publish opens its own connection.
type Publisher struct {
	URL string
	now func() time.Time
}

func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url, now: time.Now}
}

// BookingConfirmed publishes to the booking.confirmed queue.
func (p *Publisher) BookingConfirmed(ctx context.Context, clientID string, rec model.BookingRecord) error {
	return p.publish(ctx, q.BookingConfirmedQueue, q.NewBookingEvent("confirmed", clientID, rec, p.now()))
}

// BookingCancelled publishes to the booking.cancelled queue.
func (p *Publisher) BookingCancelled(ctx context.Context, clientID string, rec model.BookingRecord) error {
	return p.publish(ctx, q.BookingCancelledQueue, q.NewBookingEvent("cancelled", clientID, rec, p.now()))
}

func (p *Publisher) publish(ctx context.Context, queue string, event q.BookingEvent) error {
	conn, err := amqp.Dial(p.URL)
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
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    p.now().UTC(),
		MessageId:    event.TransactionID + ":" + event.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
