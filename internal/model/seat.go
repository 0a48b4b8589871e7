package model

import "time"

// Seat statuses. PROCESSING is a short-lived exclusive lock taken by the
// explicit booking flow; BLOCKED is an administrative state the booking
// flow never enters or leaves.
const (
	SeatAvailable  = "AVAILABLE"
	SeatProcessing = "PROCESSING"
	SeatBooked     = "BOOKED"
	SeatBlocked    = "BLOCKED"
)

// Seat is a single bookable slot of an event. Each seat belongs to
// exactly one event and carries a display label such as "A12".
//
// Fields:
//  ID      – primary key identifier.
//  EventID – owning event.
//  Label   – display string shown to customers.
//  Status  – AVAILABLE | PROCESSING | BOOKED | BLOCKED.
type Seat struct {
	ID        uint64    `json:"id"`       // seats.id
	EventID   uint64    `json:"event_id"` // seats.event_id
	Label     string    `json:"label"`    // seats.label
	Status    string    `json:"status"`   // seats.status
	CreatedAt time.Time `json:"-"`        // seats.created_at
	UpdatedAt time.Time `json:"-"`        // seats.updated_at
}
