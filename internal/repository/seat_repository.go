package repository // repository defines data access for seats

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-rsvp/internal/model"
)

// SeatRepo owns seat rows and their status transitions. Every mutation is
// a conditional UPDATE whose WHERE clause encodes the state-machine
// precondition, so a transition either happens atomically or affects zero
// rows and fails without touching anything. No other component writes to
// the seats table.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// DB exposes the underlying handle so callers can open transactions.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// ReserveForProcessing transitions a seat AVAILABLE -> PROCESSING only if
// it currently is AVAILABLE and belongs to the given event. The UPDATE is
// auto-committed on purpose: the PROCESSING status acts as a short-lived
// exclusive lock that must be visible to every other request immediately,
// not only inside an open transaction. Exactly one of two racing callers
// wins; the loser gets ErrSeatUnavailable.
func (r *SeatRepo) ReserveForProcessing(ctx context.Context, seatID, eventID uint64) (*model.Seat, error) {
	const q = `UPDATE seats SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND event_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.SeatProcessing, seatID, eventID, model.SeatAvailable)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing seat from one that is simply taken.
		if _, err := r.GetForEvent(ctx, seatID, eventID); err != nil {
			return nil, err
		}
		return nil, ErrSeatUnavailable
	}
	return r.GetForEvent(ctx, seatID, eventID)
}

// Release returns a seat to AVAILABLE from any status. It is the
// compensating action of the booking flow and the release path of
// cancellation; calling it twice is harmless.
func (r *SeatRepo) Release(ctx context.Context, seatID uint64) error {
	const q = `UPDATE seats SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, model.SeatAvailable, seatID)
	return err
}

// ReleaseTx is Release within an existing transaction.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, seatID uint64) error {
	const q = `UPDATE seats SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, model.SeatAvailable, seatID)
	return err
}

// ReleaseIfUnclaimedTx returns a seat to AVAILABLE only when no confirmed
// RSVP still references it. Used when a canceled reservation is being
// rebooked onto a different seat: its old seat may meanwhile have been
// reassigned to someone else, and releasing it then would break their
// booking.
func (r *SeatRepo) ReleaseIfUnclaimedTx(ctx context.Context, tx *sql.Tx, seatID uint64) error {
	const q = `UPDATE seats s SET s.status = ?, s.updated_at = CURRENT_TIMESTAMP
	           WHERE s.id = ?
	             AND NOT EXISTS (SELECT 1 FROM rsvps r WHERE r.seat_id = s.id AND r.status = ?)`
	_, err := tx.ExecContext(ctx, q, model.SeatAvailable, seatID, model.RsvpConfirmed)
	return err
}

// FinalizeTx transitions PROCESSING -> BOOKED. Called only after the
// ledger write succeeded, inside the same transaction. A zero-row update
// means the seat was not in PROCESSING and the booking must unwind.
func (r *SeatRepo) FinalizeTx(ctx context.Context, tx *sql.Tx, seatID uint64) error {
	const q = `UPDATE seats SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, model.SeatBooked, seatID, model.SeatProcessing)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidSeatState
	}
	return nil
}

// BookAvailableTx transitions AVAILABLE -> BOOKED directly. The
// auto-assign flow uses it inside its transaction; no PROCESSING step is
// needed there because selection and booking share one unit of work.
func (r *SeatRepo) BookAvailableTx(ctx context.Context, tx *sql.Tx, seatID uint64) error {
	const q = `UPDATE seats SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, model.SeatBooked, seatID, model.SeatAvailable)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatUnavailable
	}
	return nil
}

// PickRandomAvailableTx returns one AVAILABLE seat of the event, chosen
// uniformly at random, locked for the remainder of the transaction.
// Returns (nil, nil) when no seat qualifies.
func (r *SeatRepo) PickRandomAvailableTx(ctx context.Context, tx *sql.Tx, eventID uint64) (*model.Seat, error) {
	const q = `SELECT id, event_id, label, status, created_at, updated_at
	           FROM seats
	           WHERE event_id = ? AND status = ?
	           ORDER BY RAND()
	           LIMIT 1
	           FOR UPDATE`
	var s model.Seat
	err := tx.QueryRowContext(ctx, q, eventID, model.SeatAvailable).
		Scan(&s.ID, &s.EventID, &s.Label, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Block transitions AVAILABLE -> BLOCKED. Administrator-only override that
// bypasses the processing gate but still refuses to touch a seat that is
// mid-booking or booked.
func (r *SeatRepo) Block(ctx context.Context, seatID uint64) error {
	return r.adminTransition(ctx, seatID, model.SeatAvailable, model.SeatBlocked)
}

// Unblock transitions BLOCKED -> AVAILABLE.
func (r *SeatRepo) Unblock(ctx context.Context, seatID uint64) error {
	return r.adminTransition(ctx, seatID, model.SeatBlocked, model.SeatAvailable)
}

func (r *SeatRepo) adminTransition(ctx context.Context, seatID uint64, from, to string) error {
	const q = `UPDATE seats SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, seatID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, seatID); err != nil {
			return err
		}
		return ErrInvalidSeatState
	}
	return nil
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, seatID uint64) (*model.Seat, error) {
	const q = `SELECT id, event_id, label, status, created_at, updated_at
	           FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, seatID).
		Scan(&s.ID, &s.EventID, &s.Label, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetForEvent retrieves a seat by id while enforcing that it belongs to
// the given event.
func (r *SeatRepo) GetForEvent(ctx context.Context, seatID, eventID uint64) (*model.Seat, error) {
	const q = `SELECT id, event_id, label, status, created_at, updated_at
	           FROM seats WHERE id = ? AND event_id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, seatID, eventID).
		Scan(&s.ID, &s.EventID, &s.Label, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByEvent retrieves all seats of an event ordered by label.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Seat, error) {
	const q = `SELECT id, event_id, label, status, created_at, updated_at
	           FROM seats
	           WHERE event_id = ?
	           ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.Label, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateBulkTx inserts the seating layout of an event in a single
// statement. All seats start AVAILABLE. Passing an empty slice is a no-op.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, eventID uint64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	query := `INSERT INTO seats (event_id, label, status) VALUES `
	args := make([]interface{}, 0, len(labels)*3)
	for i, label := range labels {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, eventID, label, model.SeatAvailable)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
