package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iliyamo/event-rsvp/internal/model"
	"github.com/iliyamo/event-rsvp/internal/repository"
)

// fakeStore is an in-memory stand-in for the MySQL-backed Store. It keeps
// the same semantics the coordinator relies on: the PROCESSING gate is a
// conditional update visible immediately, and Run snapshots state so a
// failed unit of work rolls the ledger back (but not the committed gate).
type fakeStore struct {
	mu     sync.Mutex
	seats  map[uint64]*model.Seat
	rsvps  map[uint64]*model.Rsvp
	nextID uint64

	failFinalize bool
	failConfirm  bool
	// staleFind makes FindByIdentity report rows as CANCELED, emulating a
	// snapshot read taken before a concurrent booking confirmed the row.
	staleFind bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		seats: make(map[uint64]*model.Seat),
		rsvps: make(map[uint64]*model.Rsvp),
	}
}

func (f *fakeStore) addSeat(id, eventID uint64, label, status string) {
	f.seats[id] = &model.Seat{ID: id, EventID: eventID, Label: label, Status: status}
}

func (f *fakeStore) seatStatus(id uint64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seats[id].Status
}

func (f *fakeStore) rsvp(id uint64) *model.Rsvp {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := *f.rsvps[id]
	return &r
}

func (f *fakeStore) confirmedCount(eventID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rsvps {
		if r.EventID == eventID && r.Status == model.RsvpConfirmed {
			n++
		}
	}
	return n
}

// ReserveForProcessing implements the SeatGate admission control.
func (f *fakeStore) ReserveForProcessing(_ context.Context, seatID, eventID uint64) (*model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seats[seatID]
	if !ok || s.EventID != eventID {
		return nil, repository.ErrSeatNotFound
	}
	if s.Status != model.SeatAvailable {
		return nil, repository.ErrSeatUnavailable
	}
	s.Status = model.SeatProcessing
	cp := *s
	return &cp, nil
}

func (f *fakeStore) Release(_ context.Context, seatID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.seats[seatID]; ok {
		s.Status = model.SeatAvailable
	}
	return nil
}

// Run holds the lock for the whole unit of work, mirroring the row locks
// a real transaction would take, and restores the snapshot on error.
func (f *fakeStore) Run(_ context.Context, fn func(tx repository.BookingTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	seatSnap := make(map[uint64]model.Seat, len(f.seats))
	for id, s := range f.seats {
		seatSnap[id] = *s
	}
	rsvpSnap := make(map[uint64]model.Rsvp, len(f.rsvps))
	for id, r := range f.rsvps {
		rsvpSnap[id] = *r
	}
	nextSnap := f.nextID

	if err := fn(&fakeTx{store: f}); err != nil {
		f.seats = make(map[uint64]*model.Seat, len(seatSnap))
		for id := range seatSnap {
			s := seatSnap[id]
			f.seats[id] = &s
		}
		f.rsvps = make(map[uint64]*model.Rsvp, len(rsvpSnap))
		for id := range rsvpSnap {
			r := rsvpSnap[id]
			f.rsvps[id] = &r
		}
		f.nextID = nextSnap
		return err
	}
	return nil
}

type fakeTx struct {
	store *fakeStore
}

func sameIdentity(r *model.Rsvp, id model.Identity) bool {
	if id.IsRegistered() {
		return r.UserID != nil && *r.UserID == id.UserID
	}
	return r.GuestEmail != nil && *r.GuestEmail == id.Email
}

func (t *fakeTx) FindByIdentity(_ context.Context, eventID uint64, id model.Identity) (*model.Rsvp, error) {
	for _, r := range t.store.rsvps {
		if r.EventID == eventID && sameIdentity(r, id) {
			cp := *r
			if t.store.staleFind {
				cp.Status = model.RsvpCanceled
			}
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) ConfirmNew(_ context.Context, eventID uint64, id model.Identity, seatID uint64) (*model.Rsvp, error) {
	if t.store.failConfirm {
		return nil, errors.New("insert failed")
	}
	for _, r := range t.store.rsvps {
		if r.EventID == eventID && sameIdentity(r, id) {
			return nil, repository.ErrDuplicateReservation
		}
	}
	t.store.nextID++
	rec := &model.Rsvp{
		ID:      t.store.nextID,
		EventID: eventID,
		SeatID:  &seatID,
		Email:   id.Email,
		Status:  model.RsvpConfirmed,
	}
	if id.IsRegistered() {
		uid := id.UserID
		rec.UserID = &uid
	} else {
		name, email := id.Name, id.Email
		rec.GuestName = &name
		rec.GuestEmail = &email
	}
	t.store.rsvps[rec.ID] = rec
	cp := *rec
	return &cp, nil
}

func (t *fakeTx) ReuseAndConfirm(_ context.Context, rsvpID, seatID uint64, id model.Identity) (*model.Rsvp, error) {
	rec, ok := t.store.rsvps[rsvpID]
	if !ok {
		return nil, repository.ErrRsvpNotFound
	}
	// Same precondition the SQL encodes in its WHERE clause: only a
	// CANCELED row may be repointed at a new seat.
	if rec.Status != model.RsvpCanceled {
		return nil, repository.ErrDuplicateReservation
	}
	rec.SeatID = &seatID
	rec.Email = id.Email
	rec.Status = model.RsvpConfirmed
	if !id.IsRegistered() {
		name := id.Name
		rec.GuestName = &name
	}
	cp := *rec
	return &cp, nil
}

func (t *fakeTx) CancelRsvp(_ context.Context, rsvpID uint64) (*model.Rsvp, error) {
	rec, ok := t.store.rsvps[rsvpID]
	if !ok {
		return nil, repository.ErrRsvpNotFound
	}
	rec.Status = model.RsvpCanceled
	cp := *rec
	return &cp, nil
}

func (t *fakeTx) GetRsvp(_ context.Context, rsvpID uint64) (*model.Rsvp, error) {
	rec, ok := t.store.rsvps[rsvpID]
	if !ok {
		return nil, repository.ErrRsvpNotFound
	}
	cp := *rec
	return &cp, nil
}

func (t *fakeTx) CountConfirmed(_ context.Context, eventID uint64) (int, error) {
	n := 0
	for _, r := range t.store.rsvps {
		if r.EventID == eventID && r.Status == model.RsvpConfirmed {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) FinalizeSeat(_ context.Context, seatID uint64) error {
	if t.store.failFinalize {
		return errors.New("update failed")
	}
	s, ok := t.store.seats[seatID]
	if !ok || s.Status != model.SeatProcessing {
		return repository.ErrInvalidSeatState
	}
	s.Status = model.SeatBooked
	return nil
}

func (t *fakeTx) ReleaseSeat(_ context.Context, seatID uint64) error {
	if s, ok := t.store.seats[seatID]; ok {
		s.Status = model.SeatAvailable
	}
	return nil
}

func (t *fakeTx) ReleaseSeatIfUnclaimed(_ context.Context, seatID uint64) error {
	for _, r := range t.store.rsvps {
		if r.SeatID != nil && *r.SeatID == seatID && r.Status == model.RsvpConfirmed {
			return nil
		}
	}
	if s, ok := t.store.seats[seatID]; ok {
		s.Status = model.SeatAvailable
	}
	return nil
}

func (t *fakeTx) BookAvailableSeat(_ context.Context, seatID uint64) error {
	s, ok := t.store.seats[seatID]
	if !ok || s.Status != model.SeatAvailable {
		return repository.ErrSeatUnavailable
	}
	s.Status = model.SeatBooked
	return nil
}

func (t *fakeTx) PickRandomAvailableSeat(_ context.Context, eventID uint64) (*model.Seat, error) {
	var pick *model.Seat
	for _, s := range t.store.seats {
		if s.EventID != eventID || s.Status != model.SeatAvailable {
			continue
		}
		if pick == nil || s.ID < pick.ID {
			pick = s
		}
	}
	if pick == nil {
		return nil, nil
	}
	cp := *pick
	return &cp, nil
}

type fakeEvents struct {
	events map[uint64]*model.Event
}

func (f *fakeEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	kinds []string
	fail  bool
}

func (f *fakeNotifier) Send(_ context.Context, kind string, _ *model.Rsvp, _ *model.Event, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker down")
	}
	f.kinds = append(f.kinds, kind)
	return nil
}

// newBookingFixture wires a coordinator over one event with the given
// seats, all AVAILABLE.
func newBookingFixture(t *testing.T, capacity, seatCount int) (*BookingService, *fakeStore, *fakeNotifier) {
	t.Helper()
	store := newFakeStore()
	for i := 1; i <= seatCount; i++ {
		store.addSeat(uint64(i), 1, fmt.Sprintf("A%d", i), model.SeatAvailable)
	}
	events := &fakeEvents{events: map[uint64]*model.Event{
		1: {ID: 1, Title: "Launch Party", Location: "Hall 9", Capacity: capacity},
	}}
	notifier := &fakeNotifier{}
	svc := NewBookingService(store, store, events, notifier, zerolog.Nop())
	return svc, store, notifier
}

func TestBookSeatConfirmsAndBooksSeat(t *testing.T) {
	svc, store, notifier := newBookingFixture(t, 5, 5)
	who := model.RegisteredIdentity(42, "ana@example.com")

	rsvp, seat, err := svc.BookSeat(context.Background(), 1, 3, who)
	if err != nil {
		t.Fatalf("BookSeat: %v", err)
	}
	if rsvp.Status != model.RsvpConfirmed {
		t.Fatalf("rsvp status = %q, want CONFIRMED", rsvp.Status)
	}
	if rsvp.SeatID == nil || *rsvp.SeatID != 3 {
		t.Fatalf("rsvp seat = %v, want 3", rsvp.SeatID)
	}
	if seat.Status != model.SeatBooked {
		t.Fatalf("returned seat status = %q, want BOOKED", seat.Status)
	}
	if got := store.seatStatus(3); got != model.SeatBooked {
		t.Fatalf("stored seat status = %q, want BOOKED", got)
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.kinds) != 1 || notifier.kinds[0] != NotifyConfirmed {
		t.Fatalf("notifications = %v, want [confirmed]", notifier.kinds)
	}
}

func TestBookSeatConcurrentSingleWinner(t *testing.T) {
	svc, store, _ := newBookingFixture(t, 50, 1)

	const racers = 32
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			who := model.RegisteredIdentity(uint64(i+1), fmt.Sprintf("u%d@example.com", i))
			_, _, errs[i] = svc.BookSeat(context.Background(), 1, 1, who)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrSeatUnavailable):
		default:
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
	if got := store.seatStatus(1); got != model.SeatBooked {
		t.Fatalf("seat status = %q, want BOOKED", got)
	}
	if got := store.confirmedCount(1); got != 1 {
		t.Fatalf("confirmed rsvps = %d, want 1", got)
	}
}

func TestBookSeatReleasesSeatWhenLedgerFails(t *testing.T) {
	svc, store, notifier := newBookingFixture(t, 5, 2)
	store.failFinalize = true

	_, _, err := svc.BookSeat(context.Background(), 1, 1, model.RegisteredIdentity(7, "b@example.com"))
	if !errors.Is(err, ErrBookingFailed) {
		t.Fatalf("err = %v, want ErrBookingFailed", err)
	}
	if got := store.seatStatus(1); got != model.SeatAvailable {
		t.Fatalf("seat status after failure = %q, want AVAILABLE", got)
	}
	if got := store.confirmedCount(1); got != 0 {
		t.Fatalf("confirmed rsvps after failure = %d, want 0", got)
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.kinds) != 0 {
		t.Fatalf("notifications after failure = %v, want none", notifier.kinds)
	}
}

func TestBookSeatRejectsSecondActiveReservation(t *testing.T) {
	svc, store, _ := newBookingFixture(t, 5, 3)
	who := model.RegisteredIdentity(7, "b@example.com")

	if _, _, err := svc.BookSeat(context.Background(), 1, 1, who); err != nil {
		t.Fatalf("first BookSeat: %v", err)
	}
	_, _, err := svc.BookSeat(context.Background(), 1, 2, who)
	if !errors.Is(err, ErrAlreadyReserved) {
		t.Fatalf("second BookSeat err = %v, want ErrAlreadyReserved", err)
	}
	// The losing attempt must not leave seat 2 stuck in PROCESSING.
	if got := store.seatStatus(2); got != model.SeatAvailable {
		t.Fatalf("seat 2 status = %q, want AVAILABLE", got)
	}
	if got := store.seatStatus(1); got != model.SeatBooked {
		t.Fatalf("seat 1 status = %q, want BOOKED", got)
	}
}

func TestRebookAfterCancelReusesRow(t *testing.T) {
	svc, store, _ := newBookingFixture(t, 5, 3)
	who := model.GuestIdentity("Sam", "sam@example.com")

	first, _, err := svc.BookSeat(context.Background(), 1, 1, who)
	if err != nil {
		t.Fatalf("BookSeat: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), first.ID, who, false); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := store.seatStatus(1); got != model.SeatAvailable {
		t.Fatalf("seat 1 after cancel = %q, want AVAILABLE", got)
	}

	second, _, err := svc.BookSeat(context.Background(), 1, 2, who)
	if err != nil {
		t.Fatalf("rebook: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("rebooked rsvp id = %d, want reused id %d", second.ID, first.ID)
	}
	if second.Status != model.RsvpConfirmed {
		t.Fatalf("rebooked status = %q, want CONFIRMED", second.Status)
	}
	if got := store.seatStatus(2); got != model.SeatBooked {
		t.Fatalf("seat 2 status = %q, want BOOKED", got)
	}
}

func TestRebookDoesNotReleaseReassignedSeat(t *testing.T) {
	svc, store, _ := newBookingFixture(t, 5, 3)
	sam := model.GuestIdentity("Sam", "sam@example.com")
	lee := model.RegisteredIdentity(9, "lee@example.com")

	first, _, err := svc.BookSeat(context.Background(), 1, 1, sam)
	if err != nil {
		t.Fatalf("BookSeat: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), first.ID, sam, false); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// Seat 1 gets claimed by someone else before Sam rebooks.
	if _, _, err := svc.BookSeat(context.Background(), 1, 1, lee); err != nil {
		t.Fatalf("lee BookSeat: %v", err)
	}

	if _, _, err := svc.BookSeat(context.Background(), 1, 2, sam); err != nil {
		t.Fatalf("rebook: %v", err)
	}
	if got := store.seatStatus(1); got != model.SeatBooked {
		t.Fatalf("seat 1 status = %q, want BOOKED (lee still holds it)", got)
	}
}

func TestBookSeatConcurrentRebookSameIdentity(t *testing.T) {
	// A canceled RSVP being rebooked from several requests at once: only
	// one may flip the row back to CONFIRMED, and every losing request must
	// hand its gated seat back.
	const racers = 16
	svc, store, _ := newBookingFixture(t, 50, racers+1)
	sam := model.GuestIdentity("Sam", "sam@example.com")

	first, _, err := svc.BookSeat(context.Background(), 1, 1, sam)
	if err != nil {
		t.Fatalf("BookSeat: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), first.ID, sam, false); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.BookSeat(context.Background(), 1, uint64(i+2), sam)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyReserved), errors.Is(err, repository.ErrDuplicateReservation):
		default:
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
	if got := store.confirmedCount(1); got != 1 {
		t.Fatalf("confirmed rsvps = %d, want 1", got)
	}
	// The reused row must point at exactly the winning seat; all other
	// raced seats go back to AVAILABLE.
	won := store.rsvp(first.ID)
	if won.Status != model.RsvpConfirmed || won.SeatID == nil {
		t.Fatalf("reused rsvp = %+v, want CONFIRMED with a seat", won)
	}
	booked := 0
	for i := 0; i < racers; i++ {
		seatID := uint64(i + 2)
		switch got := store.seatStatus(seatID); got {
		case model.SeatBooked:
			booked++
			if *won.SeatID != seatID {
				t.Fatalf("seat %d BOOKED but rsvp points at seat %d", seatID, *won.SeatID)
			}
		case model.SeatAvailable:
		default:
			t.Fatalf("seat %d status = %q, want BOOKED or AVAILABLE", seatID, got)
		}
	}
	if booked != 1 {
		t.Fatalf("booked seats = %d, want 1", booked)
	}
}

func TestBookSeatRefusesConcurrentlyConfirmedRow(t *testing.T) {
	// The reuse update carries a CANCELED precondition. If another request
	// confirms the row between this request's read and its write, the write
	// must match zero rows, the booking must fail, and the gated seat must
	// be released instead of the live reservation being repointed.
	svc, store, _ := newBookingFixture(t, 5, 3)
	sam := model.GuestIdentity("Sam", "sam@example.com")

	if _, _, err := svc.BookSeat(context.Background(), 1, 1, sam); err != nil {
		t.Fatalf("BookSeat: %v", err)
	}
	store.staleFind = true

	_, _, err := svc.BookSeat(context.Background(), 1, 2, sam)
	if !errors.Is(err, repository.ErrDuplicateReservation) {
		t.Fatalf("err = %v, want ErrDuplicateReservation", err)
	}
	if got := store.seatStatus(1); got != model.SeatBooked {
		t.Fatalf("seat 1 status = %q, want BOOKED (live reservation keeps its seat)", got)
	}
	if got := store.seatStatus(2); got != model.SeatAvailable {
		t.Fatalf("seat 2 status = %q, want AVAILABLE (gate rolled back)", got)
	}
	won := store.rsvp(1)
	if won.Status != model.RsvpConfirmed || won.SeatID == nil || *won.SeatID != 1 {
		t.Fatalf("rsvp = %+v, want CONFIRMED on seat 1", won)
	}
	if got := store.confirmedCount(1); got != 1 {
		t.Fatalf("confirmed rsvps = %d, want 1", got)
	}
}

func TestAutoAssignRefusesConcurrentlyConfirmedRow(t *testing.T) {
	svc, store, _ := newBookingFixture(t, 5, 3)
	sam := model.GuestIdentity("Sam", "sam@example.com")

	if _, _, err := svc.BookSeat(context.Background(), 1, 1, sam); err != nil {
		t.Fatalf("BookSeat: %v", err)
	}
	store.staleFind = true

	_, _, err := svc.AutoAssign(context.Background(), 1, sam)
	if !errors.Is(err, repository.ErrDuplicateReservation) {
		t.Fatalf("err = %v, want ErrDuplicateReservation", err)
	}
	// The auto-assign transaction rolled back whole: the picked seat is
	// AVAILABLE again and seat 1 still belongs to the live reservation.
	if got := store.seatStatus(2); got != model.SeatAvailable {
		t.Fatalf("seat 2 status = %q, want AVAILABLE", got)
	}
	if got := store.seatStatus(1); got != model.SeatBooked {
		t.Fatalf("seat 1 status = %q, want BOOKED", got)
	}
	if got := store.confirmedCount(1); got != 1 {
		t.Fatalf("confirmed rsvps = %d, want 1", got)
	}
}

func TestAutoAssignBooksLowestAvailableSeat(t *testing.T) {
	svc, store, _ := newBookingFixture(t, 5, 3)
	store.seats[1].Status = model.SeatBooked

	rsvp, seat, err := svc.AutoAssign(context.Background(), 1, model.GuestIdentity("Ana", "ana@example.com"))
	if err != nil {
		t.Fatalf("AutoAssign: %v", err)
	}
	if seat.ID != 2 {
		t.Fatalf("assigned seat = %d, want 2", seat.ID)
	}
	if rsvp.GuestEmail == nil || *rsvp.GuestEmail != "ana@example.com" {
		t.Fatalf("rsvp guest email = %v", rsvp.GuestEmail)
	}
	if got := store.seatStatus(2); got != model.SeatBooked {
		t.Fatalf("seat 2 status = %q, want BOOKED", got)
	}
}

func TestAutoAssignRejectsSecondActiveReservation(t *testing.T) {
	svc, _, _ := newBookingFixture(t, 5, 3)
	who := model.GuestIdentity("Ana", "ana@example.com")

	if _, _, err := svc.AutoAssign(context.Background(), 1, who); err != nil {
		t.Fatalf("first AutoAssign: %v", err)
	}
	_, _, err := svc.AutoAssign(context.Background(), 1, who)
	if !errors.Is(err, ErrAlreadyReserved) {
		t.Fatalf("second AutoAssign err = %v, want ErrAlreadyReserved", err)
	}
}

func TestAutoAssignEventFull(t *testing.T) {
	svc, _, _ := newBookingFixture(t, 2, 4)

	for i := 0; i < 2; i++ {
		who := model.GuestIdentity("G", fmt.Sprintf("g%d@example.com", i))
		if _, _, err := svc.AutoAssign(context.Background(), 1, who); err != nil {
			t.Fatalf("AutoAssign %d: %v", i, err)
		}
	}
	_, _, err := svc.AutoAssign(context.Background(), 1, model.GuestIdentity("Late", "late@example.com"))
	if !errors.Is(err, ErrEventFull) {
		t.Fatalf("err = %v, want ErrEventFull", err)
	}
}

func TestAutoAssignNoSeatsAvailable(t *testing.T) {
	svc, store, _ := newBookingFixture(t, 5, 2)
	store.seats[1].Status = model.SeatBlocked
	store.seats[2].Status = model.SeatBlocked

	_, _, err := svc.AutoAssign(context.Background(), 1, model.GuestIdentity("Ana", "ana@example.com"))
	if !errors.Is(err, ErrNoSeatsAvailable) {
		t.Fatalf("err = %v, want ErrNoSeatsAvailable", err)
	}
}

func TestCancelIsIdempotentAndSafe(t *testing.T) {
	svc, store, notifier := newBookingFixture(t, 5, 2)
	sam := model.GuestIdentity("Sam", "sam@example.com")
	lee := model.RegisteredIdentity(9, "lee@example.com")

	rsvp, _, err := svc.BookSeat(context.Background(), 1, 1, sam)
	if err != nil {
		t.Fatalf("BookSeat: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), rsvp.ID, sam, false); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}
	// Seat 1 is rebooked by someone else; a second cancel of the stale
	// RSVP must not release it.
	if _, _, err := svc.BookSeat(context.Background(), 1, 1, lee); err != nil {
		t.Fatalf("lee BookSeat: %v", err)
	}
	got, err := svc.Cancel(context.Background(), rsvp.ID, sam, false)
	if err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if got.Status != model.RsvpCanceled {
		t.Fatalf("status = %q, want CANCELED", got.Status)
	}
	if s := store.seatStatus(1); s != model.SeatBooked {
		t.Fatalf("seat 1 status = %q, want BOOKED (second cancel must not release)", s)
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	// confirmed(sam) + cancelled(sam) + confirmed(lee); the no-op cancel
	// sends nothing.
	if len(notifier.kinds) != 3 {
		t.Fatalf("notifications = %v, want 3 entries", notifier.kinds)
	}
}

func TestCancelAuthorization(t *testing.T) {
	svc, _, _ := newBookingFixture(t, 5, 2)
	sam := model.GuestIdentity("Sam", "sam@example.com")
	stranger := model.RegisteredIdentity(77, "x@example.com")

	rsvp, _, err := svc.BookSeat(context.Background(), 1, 1, sam)
	if err != nil {
		t.Fatalf("BookSeat: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), rsvp.ID, stranger, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger cancel err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Cancel(context.Background(), rsvp.ID, stranger, true); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}

func TestCancelUnknownRsvp(t *testing.T) {
	svc, _, _ := newBookingFixture(t, 5, 1)
	_, err := svc.Cancel(context.Background(), 999, model.RegisteredIdentity(1, "a@example.com"), false)
	if !errors.Is(err, repository.ErrRsvpNotFound) {
		t.Fatalf("err = %v, want ErrRsvpNotFound", err)
	}
}

func TestNotifierFailureDoesNotFailBooking(t *testing.T) {
	svc, store, notifier := newBookingFixture(t, 5, 1)
	notifier.fail = true

	rsvp, _, err := svc.BookSeat(context.Background(), 1, 1, model.RegisteredIdentity(5, "n@example.com"))
	if err != nil {
		t.Fatalf("BookSeat: %v", err)
	}
	if rsvp.Status != model.RsvpConfirmed {
		t.Fatalf("status = %q, want CONFIRMED", rsvp.Status)
	}
	if got := store.seatStatus(1); got != model.SeatBooked {
		t.Fatalf("seat status = %q, want BOOKED", got)
	}
}

func TestBookSeatUnknownSeatOrEvent(t *testing.T) {
	svc, _, _ := newBookingFixture(t, 5, 1)
	who := model.RegisteredIdentity(3, "c@example.com")

	if _, _, err := svc.BookSeat(context.Background(), 1, 99, who); !errors.Is(err, repository.ErrSeatNotFound) {
		t.Fatalf("unknown seat err = %v, want ErrSeatNotFound", err)
	}
	// Seat 1 belongs to event 1; asking for it under another event must
	// not gate it.
	if _, _, err := svc.BookSeat(context.Background(), 2, 1, who); !errors.Is(err, repository.ErrSeatNotFound) {
		t.Fatalf("wrong event err = %v, want ErrSeatNotFound", err)
	}
	if _, _, err := svc.AutoAssign(context.Background(), 2, who); !errors.Is(err, repository.ErrEventNotFound) {
		t.Fatalf("unknown event err = %v, want ErrEventNotFound", err)
	}
}

func TestCapacityTwoEndToEnd(t *testing.T) {
	// Event capacity 2, seats A and B. X books A; Y loses the race for A
	// and takes B; X cancels, freeing A; Z auto-assigns and gets A.
	svc, store, _ := newBookingFixture(t, 2, 2)
	x := model.GuestIdentity("X", "x@example.com")
	y := model.GuestIdentity("Y", "y@example.com")
	z := model.GuestIdentity("Z", "z@example.com")

	xRsvp, _, err := svc.BookSeat(context.Background(), 1, 1, x)
	if err != nil {
		t.Fatalf("x books A: %v", err)
	}
	if _, _, err := svc.BookSeat(context.Background(), 1, 1, y); !errors.Is(err, repository.ErrSeatUnavailable) {
		t.Fatalf("y books A err = %v, want ErrSeatUnavailable", err)
	}
	if got := store.seatStatus(1); got != model.SeatBooked {
		t.Fatalf("seat A after lost race = %q, want BOOKED", got)
	}
	if _, _, err := svc.BookSeat(context.Background(), 1, 2, y); err != nil {
		t.Fatalf("y books B: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), xRsvp.ID, x, false); err != nil {
		t.Fatalf("x cancels: %v", err)
	}
	if got := store.seatStatus(1); got != model.SeatAvailable {
		t.Fatalf("seat A after cancel = %q, want AVAILABLE", got)
	}

	_, seat, err := svc.AutoAssign(context.Background(), 1, z)
	if err != nil {
		t.Fatalf("z auto-assigns: %v", err)
	}
	if seat.ID != 1 {
		t.Fatalf("z got seat %d, want 1 (the only AVAILABLE seat)", seat.ID)
	}
	if got := store.confirmedCount(1); got != 2 {
		t.Fatalf("confirmed = %d, want 2", got)
	}
}
