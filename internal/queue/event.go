// Package queue defines message payloads exchanged over the message
// broker and the publisher/consumer pair that moves them.
package queue

// NotificationQueueName is the durable queue carrying RSVP notifications.
const NotificationQueueName = "rsvp.notifications"

// RsvpNotification is published when a reservation is confirmed or
// cancelled. It carries enough information for the mail worker to build
// the message without querying the primary database.
type RsvpNotification struct {
	Kind           string `json:"kind"` // "confirmed" | "cancelled"
	RsvpID         uint64 `json:"rsvp_id"`
	EventID        uint64 `json:"event_id"`
	EventTitle     string `json:"event_title"`
	EventDate      string `json:"event_date"`
	EventLocation  string `json:"event_location"`
	SeatLabel      string `json:"seat_label,omitempty"`
	RecipientName  string `json:"recipient_name,omitempty"`
	RecipientEmail string `json:"recipient_email"`
	SentAt         string `json:"sent_at"`
}
