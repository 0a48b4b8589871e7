package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-rsvp/internal/model"
)

// RsvpRepo provides data access to the rsvps table: the reservation
// ledger. The table carries unique indexes on (event_id, user_id) and
// (event_id, guest_email); because canceled rows are reused in place on
// rebooking instead of inserted anew, those indexes double as the
// one-active-RSVP-per-identity guarantee.
type RsvpRepo struct {
	db *sql.DB
}

// NewRsvpRepo returns a new RsvpRepo bound to the given database.
func NewRsvpRepo(db *sql.DB) *RsvpRepo { return &RsvpRepo{db: db} }

const rsvpColumns = `id, event_id, user_id, seat_id, guest_name, guest_email, email, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRsvp(row rowScanner) (*model.Rsvp, error) {
	var rec model.Rsvp
	var userID, seatID sql.NullInt64
	var guestName, guestEmail sql.NullString
	err := row.Scan(
		&rec.ID, &rec.EventID, &userID, &seatID,
		&guestName, &guestEmail, &rec.Email, &rec.Status,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		rec.UserID = &v
	}
	if seatID.Valid {
		v := uint64(seatID.Int64)
		rec.SeatID = &v
	}
	if guestName.Valid {
		v := guestName.String
		rec.GuestName = &v
	}
	if guestEmail.Valid {
		v := guestEmail.String
		rec.GuestEmail = &v
	}
	return &rec, nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// FindByIdentityTx returns the single RSVP row for the identity on the
// event regardless of status, so the caller can decide between reuse and
// reject. Returns (nil, nil) when no row exists. Registered identities are
// keyed by user id, guests by email.
func (r *RsvpRepo) FindByIdentityTx(ctx context.Context, tx *sql.Tx, eventID uint64, id model.Identity) (*model.Rsvp, error) {
	var row *sql.Row
	if id.IsRegistered() {
		const q = `SELECT ` + rsvpColumns + ` FROM rsvps WHERE event_id = ? AND user_id = ?`
		row = tx.QueryRowContext(ctx, q, eventID, id.UserID)
	} else {
		const q = `SELECT ` + rsvpColumns + ` FROM rsvps WHERE event_id = ? AND guest_email = ?`
		row = tx.QueryRowContext(ctx, q, eventID, id.Email)
	}
	rec, err := scanRsvp(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// ConfirmNewTx inserts a CONFIRMED row for the identity and seat. The
// unique indexes reject a second row per identity with
// ErrDuplicateReservation; the coordinator checks first, this is the
// storage-level backstop.
func (r *RsvpRepo) ConfirmNewTx(ctx context.Context, tx *sql.Tx, eventID uint64, id model.Identity, seatID uint64) (*model.Rsvp, error) {
	var res sql.Result
	var err error
	if id.IsRegistered() {
		const q = `INSERT INTO rsvps (event_id, user_id, seat_id, email, status) VALUES (?, ?, ?, ?, ?)`
		res, err = tx.ExecContext(ctx, q, eventID, id.UserID, seatID, id.Email, model.RsvpConfirmed)
	} else {
		const q = `INSERT INTO rsvps (event_id, seat_id, guest_name, guest_email, email, status) VALUES (?, ?, ?, ?, ?, ?)`
		res, err = tx.ExecContext(ctx, q, eventID, seatID, id.Name, id.Email, id.Email, model.RsvpConfirmed)
	}
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateReservation
		}
		return nil, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.getByIDTx(ctx, tx, uint64(newID))
}

// ReuseAndConfirmTx flips an existing CANCELED row back to CONFIRMED with
// a new seat and refreshed identity fields. The row keeps its id, so the
// uniqueness constraints are satisfied without a delete+insert. The
// CANCELED precondition is part of the UPDATE itself: if a concurrent
// booking confirmed the row after the caller's read, zero rows match and
// ErrDuplicateReservation comes back instead of silently repointing a
// live reservation at a different seat.
func (r *RsvpRepo) ReuseAndConfirmTx(ctx context.Context, tx *sql.Tx, rsvpID, seatID uint64, id model.Identity) (*model.Rsvp, error) {
	var res sql.Result
	var err error
	if id.IsRegistered() {
		const q = `UPDATE rsvps SET seat_id = ?, email = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		           WHERE id = ? AND status = ?`
		res, err = tx.ExecContext(ctx, q, seatID, id.Email, model.RsvpConfirmed, rsvpID, model.RsvpCanceled)
	} else {
		const q = `UPDATE rsvps SET seat_id = ?, guest_name = ?, email = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		           WHERE id = ? AND status = ?`
		res, err = tx.ExecContext(ctx, q, seatID, id.Name, id.Email, model.RsvpConfirmed, rsvpID, model.RsvpCanceled)
	}
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrDuplicateReservation
	}
	return r.getByIDTx(ctx, tx, rsvpID)
}

// CancelTx sets the RSVP status to CANCELED. The seat reference is kept
// for history; the coordinator sequences the seat release around this
// call.
func (r *RsvpRepo) CancelTx(ctx context.Context, tx *sql.Tx, rsvpID uint64) (*model.Rsvp, error) {
	const q = `UPDATE rsvps SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, model.RsvpCanceled, rsvpID); err != nil {
		return nil, err
	}
	return r.getByIDTx(ctx, tx, rsvpID)
}

// CountConfirmedTx counts CONFIRMED rows of an event; the auto-assign
// flow compares it against the event capacity.
func (r *RsvpRepo) CountConfirmedTx(ctx context.Context, tx *sql.Tx, eventID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM rsvps WHERE event_id = ? AND status = ?`
	var n int
	if err := tx.QueryRowContext(ctx, q, eventID, model.RsvpConfirmed).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountConfirmed is CountConfirmedTx outside a transaction, used by read
// endpoints.
func (r *RsvpRepo) CountConfirmed(ctx context.Context, eventID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM rsvps WHERE event_id = ? AND status = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, eventID, model.RsvpConfirmed).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *RsvpRepo) getByIDTx(ctx context.Context, tx *sql.Tx, rsvpID uint64) (*model.Rsvp, error) {
	const q = `SELECT ` + rsvpColumns + ` FROM rsvps WHERE id = ?`
	rec, err := scanRsvp(tx.QueryRowContext(ctx, q, rsvpID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRsvpNotFound
		}
		return nil, err
	}
	return rec, nil
}

// GetByIDTx loads an RSVP by id within a transaction.
func (r *RsvpRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, rsvpID uint64) (*model.Rsvp, error) {
	return r.getByIDTx(ctx, tx, rsvpID)
}

// GetByID loads an RSVP by id.
func (r *RsvpRepo) GetByID(ctx context.Context, rsvpID uint64) (*model.Rsvp, error) {
	const q = `SELECT ` + rsvpColumns + ` FROM rsvps WHERE id = ?`
	rec, err := scanRsvp(r.db.QueryRowContext(ctx, q, rsvpID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRsvpNotFound
		}
		return nil, err
	}
	return rec, nil
}

// RsvpDetail is an RSVP joined with its event and seat for display.
// Holder name and email are resolved from either the guest fields or the
// registered user so the caller always has both.
type RsvpDetail struct {
	ID     uint64 `json:"id"`
	Status string `json:"status"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Event  struct {
		ID       uint64  `json:"id"`
		Title    string  `json:"title"`
		Date     *string `json:"date"`
		Location string  `json:"location"`
	} `json:"event"`
	Seat struct {
		ID    *uint64 `json:"id"`
		Label string  `json:"label"`
	} `json:"seat"`
}

const rsvpDetailQuery = `SELECT r.id, r.status, r.email,
	       COALESCE(r.guest_name, u.name, '') AS holder_name,
	       e.id, e.title, e.date, e.location,
	       r.seat_id, COALESCE(s.label, '') AS seat_label
	FROM rsvps r
	JOIN events e ON e.id = r.event_id
	LEFT JOIN seats s ON s.id = r.seat_id
	LEFT JOIN users u ON u.id = r.user_id`

func (r *RsvpRepo) queryDetails(ctx context.Context, q string, args ...interface{}) ([]RsvpDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]RsvpDetail, 0)
	for rows.Next() {
		var d RsvpDetail
		var date sql.NullTime
		var seatID sql.NullInt64
		if err := rows.Scan(
			&d.ID, &d.Status, &d.Email, &d.Name,
			&d.Event.ID, &d.Event.Title, &date, &d.Event.Location,
			&seatID, &d.Seat.Label,
		); err != nil {
			return nil, err
		}
		if date.Valid {
			iso := date.Time.UTC().Format(time.RFC3339)
			d.Event.Date = &iso
		}
		if seatID.Valid {
			v := uint64(seatID.Int64)
			d.Seat.ID = &v
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// ListByUser returns all RSVPs of a registered user, newest first.
func (r *RsvpRepo) ListByUser(ctx context.Context, userID uint64) ([]RsvpDetail, error) {
	return r.queryDetails(ctx, rsvpDetailQuery+` WHERE r.user_id = ? ORDER BY r.created_at DESC`, userID)
}

// ListAll returns every RSVP with holder details; admin view.
func (r *RsvpRepo) ListAll(ctx context.Context) ([]RsvpDetail, error) {
	return r.queryDetails(ctx, rsvpDetailQuery+` ORDER BY r.created_at DESC`)
}
