package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/event-rsvp/internal/model"
)

// Publisher sends RSVP notifications to RabbitMQ. It satisfies the
// booking coordinator's Notifier contract: every error is logged and
// returned so the caller can ignore it, and nothing here ever panics or
// interrupts the request flow. Messages are marked persistent.
type Publisher struct {
	url string
	log zerolog.Logger
}

// NewPublisher builds a Publisher for the given broker URL.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Send publishes one RsvpNotification to the rsvp.notifications queue.
// A fresh connection per message keeps the publisher stateless; the
// notification volume of a booking service does not justify a pooled
// channel.
func (p *Publisher) Send(ctx context.Context, kind string, rsvp *model.Rsvp, event *model.Event, seatLabel string) error {
	n := RsvpNotification{
		Kind:           kind,
		RsvpID:         rsvp.ID,
		EventID:        event.ID,
		EventTitle:     event.Title,
		EventLocation:  event.Location,
		SeatLabel:      seatLabel,
		RecipientEmail: rsvp.Email,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}
	if !event.Date.IsZero() {
		n.EventDate = event.Date.UTC().Format(time.RFC3339)
	}
	if rsvp.GuestName != nil {
		n.RecipientName = *rsvp.GuestName
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(NotificationQueueName, true, false, false, false, nil); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", NotificationQueueName, false, false, pub); err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
