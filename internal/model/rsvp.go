package model

import "time"

// RSVP statuses.
const (
	RsvpConfirmed = "CONFIRMED"
	RsvpCanceled  = "CANCELED"
)

// Rsvp binds an identity to an event and, usually, to a seat. Exactly one
// of UserID or the guest name/email pair is populated. At most one
// CONFIRMED row may exist per (event, user) and per (event, guest email);
// canceled rows are reused on rebooking so the uniqueness constraints in
// the rsvps table are never violated.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event being attended.
//  UserID     – registered holder (nil for guests).
//  SeatID     – assigned seat (nil only transiently or for legacy rows).
//  GuestName  – guest display name (guest rows only).
//  GuestEmail – guest contact address (guest rows only).
//  Email      – contact address used for notifications, set for both modes.
//  Status     – CONFIRMED | CANCELED.
type Rsvp struct {
	ID         uint64    `json:"id"`                    // rsvps.id
	EventID    uint64    `json:"event_id"`              // rsvps.event_id
	UserID     *uint64   `json:"user_id,omitempty"`     // rsvps.user_id (nullable)
	SeatID     *uint64   `json:"seat_id,omitempty"`     // rsvps.seat_id (nullable)
	GuestName  *string   `json:"guest_name,omitempty"`  // rsvps.guest_name (nullable)
	GuestEmail *string   `json:"guest_email,omitempty"` // rsvps.guest_email (nullable)
	Email      string    `json:"email"`                 // rsvps.email
	Status     string    `json:"status"`                // rsvps.status
	CreatedAt  time.Time `json:"created_at"`            // rsvps.created_at
	UpdatedAt  time.Time `json:"updated_at"`            // rsvps.updated_at
}
