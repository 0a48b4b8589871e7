package model

import "time"

// Event is a bookable happening with a fixed seating capacity.
// Seats and RSVPs belong to their event and are removed with it.
//
// Fields:
//  ID       – primary key identifier.
//  Title    – display title.
//  Date     – when the event takes place (UTC).
//  Location – venue description.
//  Capacity – number of seats; always >= 1.
type Event struct {
	ID        uint64    `json:"id"`         // events.id
	Title     string    `json:"title"`      // events.title
	Date      time.Time `json:"date"`       // events.date
	Location  string    `json:"location"`   // events.location
	Capacity  int       `json:"capacity"`   // events.capacity
	CreatedAt time.Time `json:"created_at"` // events.created_at
	UpdatedAt time.Time `json:"updated_at"` // events.updated_at
}
