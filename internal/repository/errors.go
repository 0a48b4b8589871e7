// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and handlers to distinguish between different failure
// scenarios without inspecting SQL errors themselves.
package repository

import "errors"

// ErrSeatNotFound is returned when a seat lookup yields no rows, or the
// seat does not belong to the requested event.
var ErrSeatNotFound = errors.New("seat not found")

// ErrSeatUnavailable is returned when the conditional transition to
// PROCESSING (or directly to BOOKED in the auto-assign flow) affects no
// rows because the seat is not AVAILABLE. This is the admission-control
// gate that prevents double booking; the losing request of a race
// observes this error.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrInvalidSeatState is returned when a seat transition is attempted
// from a state that does not match its precondition, e.g. finalizing a
// seat that is not PROCESSING or blocking a seat that is not AVAILABLE.
// No mutation is performed.
var ErrInvalidSeatState = errors.New("invalid seat state")

// ErrDuplicateReservation is the storage-level guarantee behind the
// one-active-RSVP-per-identity rule: the unique indexes on
// (event_id, user_id) and (event_id, guest_email) reject a second row.
var ErrDuplicateReservation = errors.New("duplicate reservation")

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// ErrRsvpNotFound is returned when an RSVP lookup yields no rows.
var ErrRsvpNotFound = errors.New("rsvp not found")

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registering with an email that already
// has an account.
var ErrEmailTaken = errors.New("email already registered")
