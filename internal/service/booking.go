package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/event-rsvp/internal/model"
	"github.com/iliyamo/event-rsvp/internal/repository"
)

// SeatGate is the committed (non-transactional) slice of the seat
// registry the coordinator needs: the PROCESSING admission gate and the
// compensating release. Both take effect immediately so the lock and its
// rollback are visible to every concurrent request.
type SeatGate interface {
	ReserveForProcessing(ctx context.Context, seatID, eventID uint64) (*model.Seat, error)
	Release(ctx context.Context, seatID uint64) error
}

// UnitOfWork runs a function inside one atomic transaction over the seat
// registry and the reservation ledger.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(tx repository.BookingTx) error) error
}

// EventStore is the read access the coordinator needs to events.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
}

// BookingService coordinates the two booking flows and cancellation. All
// seat and RSVP mutation flows through the SeatGate and the UnitOfWork;
// nothing else in the process writes those tables.
type BookingService struct {
	seats    SeatGate
	store    UnitOfWork
	events   EventStore
	notifier Notifier
	log      zerolog.Logger
}

// NewBookingService constructs the coordinator. The notifier may be nil,
// in which case notifications are skipped entirely.
func NewBookingService(seats SeatGate, store UnitOfWork, events EventStore, notifier Notifier, log zerolog.Logger) *BookingService {
	if seats == nil || store == nil || events == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{seats: seats, store: store, events: events, notifier: notifier, log: log}
}

// BookSeat books an explicitly chosen seat for the identity.
//
// The seat is first moved AVAILABLE -> PROCESSING with a committed
// conditional update; exactly one of any number of racing requests gets
// past this gate. The ledger write and the PROCESSING -> BOOKED finalize
// then run in one transaction. On any failure after the gate the seat is
// unconditionally released back to AVAILABLE before the error is
// returned; no partial success is ever reported.
func (s *BookingService) BookSeat(ctx context.Context, eventID, seatID uint64, id model.Identity) (*model.Rsvp, *model.Seat, error) {
	seat, err := s.seats.ReserveForProcessing(ctx, seatID, eventID)
	if err != nil {
		return nil, nil, err
	}

	var rsvp *model.Rsvp
	err = s.store.Run(ctx, func(tx repository.BookingTx) error {
		existing, err := tx.FindByIdentity(ctx, eventID, id)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == model.RsvpConfirmed {
			return ErrAlreadyReserved
		}
		if existing != nil {
			// Rebooking a canceled RSVP: free its previous seat first so
			// no BOOKED seat is left orphaned, unless another confirmed
			// RSVP has claimed it since.
			if existing.SeatID != nil && *existing.SeatID != seatID {
				if err := tx.ReleaseSeatIfUnclaimed(ctx, *existing.SeatID); err != nil {
					return err
				}
			}
			rsvp, err = tx.ReuseAndConfirm(ctx, existing.ID, seatID, id)
		} else {
			rsvp, err = tx.ConfirmNew(ctx, eventID, id, seatID)
		}
		if err != nil {
			return err
		}
		return tx.FinalizeSeat(ctx, seatID)
	})
	if err != nil {
		// Mandatory compensating action: the PROCESSING lock was taken
		// outside the transaction, so rollback alone does not undo it.
		if relErr := s.seats.Release(ctx, seatID); relErr != nil {
			s.log.Error().Err(relErr).Uint64("seat_id", seatID).Msg("seat release after failed booking")
		}
		return nil, nil, s.asBookingError(err)
	}

	seat.Status = model.SeatBooked
	s.notify(ctx, NotifyConfirmed, rsvp, seat.Label)
	return rsvp, seat, nil
}

// AutoAssign books a randomly chosen available seat for a guest. The
// capacity check, the duplicate check, the seat pick and the ledger write
// all run in one transaction; the pick is locked with the row, so no
// separate PROCESSING step is needed and no compensation can be left
// behind.
func (s *BookingService) AutoAssign(ctx context.Context, eventID uint64, id model.Identity) (*model.Rsvp, *model.Seat, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	var rsvp *model.Rsvp
	var seat *model.Seat
	err = s.store.Run(ctx, func(tx repository.BookingTx) error {
		confirmed, err := tx.CountConfirmed(ctx, eventID)
		if err != nil {
			return err
		}
		if confirmed >= event.Capacity {
			return ErrEventFull
		}
		existing, err := tx.FindByIdentity(ctx, eventID, id)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == model.RsvpConfirmed {
			return ErrAlreadyReserved
		}
		seat, err = tx.PickRandomAvailableSeat(ctx, eventID)
		if err != nil {
			return err
		}
		if seat == nil {
			return ErrNoSeatsAvailable
		}
		if err := tx.BookAvailableSeat(ctx, seat.ID); err != nil {
			return err
		}
		if existing != nil {
			if existing.SeatID != nil && *existing.SeatID != seat.ID {
				if err := tx.ReleaseSeatIfUnclaimed(ctx, *existing.SeatID); err != nil {
					return err
				}
			}
			rsvp, err = tx.ReuseAndConfirm(ctx, existing.ID, seat.ID, id)
		} else {
			rsvp, err = tx.ConfirmNew(ctx, eventID, id, seat.ID)
		}
		return err
	})
	if err != nil {
		return nil, nil, s.asBookingError(err)
	}

	seat.Status = model.SeatBooked
	s.notify(ctx, NotifyConfirmed, rsvp, seat.Label)
	return rsvp, seat, nil
}

// Cancel marks a reservation CANCELED and releases its seat. Only the
// holder or an administrator may cancel. Cancelling an already canceled
// reservation is a no-op: in particular it never releases a seat that may
// since have been booked by someone else.
func (s *BookingService) Cancel(ctx context.Context, rsvpID uint64, requester model.Identity, admin bool) (*model.Rsvp, error) {
	var rsvp *model.Rsvp
	changed := false
	err := s.store.Run(ctx, func(tx repository.BookingTx) error {
		current, err := tx.GetRsvp(ctx, rsvpID)
		if err != nil {
			return err
		}
		if !admin && !holds(current, requester) {
			return ErrForbidden
		}
		if current.Status == model.RsvpCanceled {
			rsvp = current
			return nil
		}
		if current.SeatID != nil {
			if err := tx.ReleaseSeat(ctx, *current.SeatID); err != nil {
				return err
			}
		}
		rsvp, err = tx.CancelRsvp(ctx, rsvpID)
		changed = err == nil
		return err
	})
	if err != nil {
		return nil, s.asBookingError(err)
	}
	if changed {
		s.notify(ctx, NotifyCancelled, rsvp, "")
	}
	return rsvp, nil
}

// holds reports whether the requester identity owns the reservation.
func holds(r *model.Rsvp, id model.Identity) bool {
	if id.IsRegistered() {
		return r.UserID != nil && *r.UserID == id.UserID
	}
	return r.GuestEmail != nil && id.Email != "" && *r.GuestEmail == id.Email
}

// asBookingError passes domain errors through unchanged and wraps
// everything else as the retryable ErrBookingFailed.
func (s *BookingService) asBookingError(err error) error {
	switch {
	case errors.Is(err, ErrAlreadyReserved),
		errors.Is(err, ErrEventFull),
		errors.Is(err, ErrNoSeatsAvailable),
		errors.Is(err, ErrForbidden),
		errors.Is(err, repository.ErrSeatUnavailable),
		errors.Is(err, repository.ErrInvalidSeatState),
		errors.Is(err, repository.ErrDuplicateReservation),
		errors.Is(err, repository.ErrSeatNotFound),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrRsvpNotFound):
		return err
	}
	s.log.Error().Err(err).Msg("booking unit of work failed")
	return fmt.Errorf("%w: %v", ErrBookingFailed, err)
}

// notify dispatches a notification without ever failing the caller.
func (s *BookingService) notify(ctx context.Context, kind string, rsvp *model.Rsvp, seatLabel string) {
	if s.notifier == nil {
		return
	}
	event, err := s.events.GetByID(ctx, rsvp.EventID)
	if err != nil {
		s.log.Warn().Err(err).Uint64("event_id", rsvp.EventID).Msg("event lookup for notification")
		event = &model.Event{ID: rsvp.EventID}
	}
	if err := s.notifier.Send(ctx, kind, rsvp, event, seatLabel); err != nil {
		s.log.Warn().Err(err).Uint64("rsvp_id", rsvp.ID).Str("kind", kind).Msg("notification dispatch failed")
	}
}
