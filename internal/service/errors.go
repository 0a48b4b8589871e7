// Package service implements the booking coordinator: the component that
// sequences seat locking, ledger writes and rollback for the two booking
// flows and for cancellation.
package service

import "errors"

// ErrAlreadyReserved is returned when the identity already holds a
// confirmed RSVP for the event.
var ErrAlreadyReserved = errors.New("already reserved for this event")

// ErrEventFull is returned by the auto-assign flow when the number of
// confirmed RSVPs has reached the event capacity.
var ErrEventFull = errors.New("event is full")

// ErrNoSeatsAvailable is returned by the auto-assign flow when no seat
// is AVAILABLE.
var ErrNoSeatsAvailable = errors.New("no available seats left")

// ErrForbidden is returned when the requester is neither the holder of
// the reservation nor an administrator.
var ErrForbidden = errors.New("forbidden")

// ErrBookingFailed wraps transient infrastructure errors. The seat has
// been restored to AVAILABLE before this is returned, so the caller may
// safely retry.
var ErrBookingFailed = errors.New("booking failed")
