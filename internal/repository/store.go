package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-rsvp/internal/model"
)

// BookingTx is the transaction-scoped contract the booking coordinator
// works against: the ledger mutations plus the seat transitions that must
// commit or roll back together with them. The SQL implementation lives in
// this package; tests substitute an in-memory one.
type BookingTx interface {
	FindByIdentity(ctx context.Context, eventID uint64, id model.Identity) (*model.Rsvp, error)
	ConfirmNew(ctx context.Context, eventID uint64, id model.Identity, seatID uint64) (*model.Rsvp, error)
	ReuseAndConfirm(ctx context.Context, rsvpID, seatID uint64, id model.Identity) (*model.Rsvp, error)
	CancelRsvp(ctx context.Context, rsvpID uint64) (*model.Rsvp, error)
	GetRsvp(ctx context.Context, rsvpID uint64) (*model.Rsvp, error)
	CountConfirmed(ctx context.Context, eventID uint64) (int, error)

	FinalizeSeat(ctx context.Context, seatID uint64) error
	ReleaseSeat(ctx context.Context, seatID uint64) error
	ReleaseSeatIfUnclaimed(ctx context.Context, seatID uint64) error
	BookAvailableSeat(ctx context.Context, seatID uint64) error
	PickRandomAvailableSeat(ctx context.Context, eventID uint64) (*model.Seat, error)
}

// Store is the unit-of-work entry point over the seat registry and the
// reservation ledger. Run executes fn inside a single database
// transaction: any error from fn rolls everything back, so a crash or
// failure mid-booking never leaves a half-booked state behind.
type Store struct {
	db    *sql.DB
	seats *SeatRepo
	rsvps *RsvpRepo
}

// NewStore builds a Store over the shared repositories.
func NewStore(db *sql.DB, seats *SeatRepo, rsvps *RsvpRepo) *Store {
	return &Store{db: db, seats: seats, rsvps: rsvps}
}

// Run starts a transaction, hands fn a BookingTx bound to it and commits
// when fn returns nil. On any error the transaction is rolled back and
// the error returned unchanged.
func (s *Store) Run(ctx context.Context, fn func(tx BookingTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlBookingTx{tx: tx, seats: s.seats, rsvps: s.rsvps}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// sqlBookingTx adapts the repository *Tx methods to the BookingTx
// contract for one open transaction.
type sqlBookingTx struct {
	tx    *sql.Tx
	seats *SeatRepo
	rsvps *RsvpRepo
}

func (t *sqlBookingTx) FindByIdentity(ctx context.Context, eventID uint64, id model.Identity) (*model.Rsvp, error) {
	return t.rsvps.FindByIdentityTx(ctx, t.tx, eventID, id)
}

func (t *sqlBookingTx) ConfirmNew(ctx context.Context, eventID uint64, id model.Identity, seatID uint64) (*model.Rsvp, error) {
	return t.rsvps.ConfirmNewTx(ctx, t.tx, eventID, id, seatID)
}

func (t *sqlBookingTx) ReuseAndConfirm(ctx context.Context, rsvpID, seatID uint64, id model.Identity) (*model.Rsvp, error) {
	return t.rsvps.ReuseAndConfirmTx(ctx, t.tx, rsvpID, seatID, id)
}

func (t *sqlBookingTx) CancelRsvp(ctx context.Context, rsvpID uint64) (*model.Rsvp, error) {
	return t.rsvps.CancelTx(ctx, t.tx, rsvpID)
}

func (t *sqlBookingTx) GetRsvp(ctx context.Context, rsvpID uint64) (*model.Rsvp, error) {
	return t.rsvps.GetByIDTx(ctx, t.tx, rsvpID)
}

func (t *sqlBookingTx) CountConfirmed(ctx context.Context, eventID uint64) (int, error) {
	return t.rsvps.CountConfirmedTx(ctx, t.tx, eventID)
}

func (t *sqlBookingTx) FinalizeSeat(ctx context.Context, seatID uint64) error {
	return t.seats.FinalizeTx(ctx, t.tx, seatID)
}

func (t *sqlBookingTx) ReleaseSeat(ctx context.Context, seatID uint64) error {
	return t.seats.ReleaseTx(ctx, t.tx, seatID)
}

func (t *sqlBookingTx) ReleaseSeatIfUnclaimed(ctx context.Context, seatID uint64) error {
	return t.seats.ReleaseIfUnclaimedTx(ctx, t.tx, seatID)
}

func (t *sqlBookingTx) BookAvailableSeat(ctx context.Context, seatID uint64) error {
	return t.seats.BookAvailableTx(ctx, t.tx, seatID)
}

func (t *sqlBookingTx) PickRandomAvailableSeat(ctx context.Context, eventID uint64) (*model.Seat, error) {
	return t.seats.PickRandomAvailableTx(ctx, t.tx, eventID)
}
