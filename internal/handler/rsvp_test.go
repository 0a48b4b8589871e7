package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-rsvp/internal/model"
	"github.com/iliyamo/event-rsvp/internal/repository"
	"github.com/iliyamo/event-rsvp/internal/service"
)

// fakeBooker lets handler tests script the coordinator's answer.
type fakeBooker struct {
	err     error
	lastID  model.Identity
	rsvp    *model.Rsvp
	seat    *model.Seat
	calls   int
	cancels int
}

func (f *fakeBooker) BookSeat(_ context.Context, eventID, seatID uint64, id model.Identity) (*model.Rsvp, *model.Seat, error) {
	f.calls++
	f.lastID = id
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.rsvp, f.seat, nil
}

func (f *fakeBooker) AutoAssign(_ context.Context, eventID uint64, id model.Identity) (*model.Rsvp, *model.Seat, error) {
	f.calls++
	f.lastID = id
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.rsvp, f.seat, nil
}

func (f *fakeBooker) Cancel(_ context.Context, rsvpID uint64, requester model.Identity, admin bool) (*model.Rsvp, error) {
	f.cancels++
	f.lastID = requester
	if f.err != nil {
		return nil, f.err
	}
	return f.rsvp, nil
}

func newRsvpTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sampleBooked() (*model.Rsvp, *model.Seat) {
	seatID := uint64(3)
	return &model.Rsvp{ID: 1, EventID: 1, SeatID: &seatID, Email: "g@example.com", Status: model.RsvpConfirmed},
		&model.Seat{ID: 3, EventID: 1, Label: "A3", Status: model.SeatBooked}
}

func TestRsvpRequiresSeatID(t *testing.T) {
	rsvp, seat := sampleBooked()
	h := &RsvpHandler{Svc: &fakeBooker{rsvp: rsvp, seat: seat}, Rsvps: &repository.RsvpRepo{}}
	c, rec := newRsvpTestContext(http.MethodPost, "/v1/events/1/rsvp", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.Rsvp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRsvpAnonymousRequiresGuestContact(t *testing.T) {
	rsvp, seat := sampleBooked()
	h := &RsvpHandler{Svc: &fakeBooker{rsvp: rsvp, seat: seat}, Rsvps: &repository.RsvpRepo{}}
	c, rec := newRsvpTestContext(http.MethodPost, "/v1/events/1/rsvp", `{"seat_id":3}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.Rsvp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRsvpGuestFlow(t *testing.T) {
	rsvp, seat := sampleBooked()
	svc := &fakeBooker{rsvp: rsvp, seat: seat}
	h := &RsvpHandler{Svc: svc, Rsvps: &repository.RsvpRepo{}}
	c, rec := newRsvpTestContext(http.MethodPost, "/v1/events/1/rsvp",
		`{"seat_id":3,"guest_name":"Sam","guest_email":"Sam@Example.com"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.Rsvp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	if svc.lastID.IsRegistered() {
		t.Fatal("identity should be a guest")
	}
	if svc.lastID.Email != "sam@example.com" {
		t.Fatalf("guest email = %q, want normalized lowercase", svc.lastID.Email)
	}
}

func TestRsvpAuthenticatedUsesAccount(t *testing.T) {
	rsvp, seat := sampleBooked()
	svc := &fakeBooker{rsvp: rsvp, seat: seat}
	h := &RsvpHandler{Svc: svc, Rsvps: &repository.RsvpRepo{}}
	c, rec := newRsvpTestContext(http.MethodPost, "/v1/events/1/rsvp", `{"seat_id":3}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("user_id", float64(42)) // JWT numeric claims decode as float64
	c.Set("email", "ana@example.com")

	if err := h.Rsvp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if !svc.lastID.IsRegistered() || svc.lastID.UserID != 42 {
		t.Fatalf("identity = %+v, want registered user 42", svc.lastID)
	}
}

func TestRsvpErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{repository.ErrSeatUnavailable, http.StatusBadRequest},
		{repository.ErrSeatNotFound, http.StatusNotFound},
		{repository.ErrEventNotFound, http.StatusNotFound},
		{repository.ErrDuplicateReservation, http.StatusBadRequest},
		{service.ErrAlreadyReserved, http.StatusBadRequest},
		{service.ErrEventFull, http.StatusBadRequest},
		{service.ErrNoSeatsAvailable, http.StatusBadRequest},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrBookingFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := &RsvpHandler{Svc: &fakeBooker{err: tc.err}, Rsvps: &repository.RsvpRepo{}}
		c, rec := newRsvpTestContext(http.MethodPost, "/v1/events/1/rsvp",
			`{"seat_id":3,"guest_name":"Sam","guest_email":"sam@example.com"}`)
		c.SetParamNames("id")
		c.SetParamValues("1")
		if err := h.Rsvp(c); err != nil {
			t.Fatalf("%v: handler error: %v", tc.err, err)
		}
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestGuestRsvpAutoAssign(t *testing.T) {
	rsvp, seat := sampleBooked()
	svc := &fakeBooker{rsvp: rsvp, seat: seat}
	h := &RsvpHandler{Svc: svc, Rsvps: &repository.RsvpRepo{}}
	c, rec := newRsvpTestContext(http.MethodPost, "/v1/events/1/guest-rsvp",
		`{"name":"Sam","email":"sam@example.com"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.GuestRsvp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if svc.calls != 1 {
		t.Fatalf("coordinator calls = %d, want 1", svc.calls)
	}
}

func TestCancelAnonymousRequiresGuestEmail(t *testing.T) {
	svc := &fakeBooker{}
	h := &RsvpHandler{Svc: svc, Rsvps: &repository.RsvpRepo{}}
	c, rec := newRsvpTestContext(http.MethodDelete, "/v1/rsvps/5", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	if err := h.Cancel(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if svc.cancels != 0 {
		t.Fatal("coordinator should not be called without an identity")
	}
}

func TestCancelGuestByEmail(t *testing.T) {
	rsvp, _ := sampleBooked()
	rsvp.Status = model.RsvpCanceled
	svc := &fakeBooker{rsvp: rsvp}
	h := &RsvpHandler{Svc: svc, Rsvps: &repository.RsvpRepo{}}
	c, rec := newRsvpTestContext(http.MethodDelete, "/v1/rsvps/5", `{"guest_email":"sam@example.com"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	if err := h.Cancel(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if svc.lastID.Email != "sam@example.com" {
		t.Fatalf("requester email = %q", svc.lastID.Email)
	}
}
