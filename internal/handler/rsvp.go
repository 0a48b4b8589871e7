package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-rsvp/internal/model"
	"github.com/iliyamo/event-rsvp/internal/repository"
	"github.com/iliyamo/event-rsvp/internal/service"
)

// Booker is the slice of the booking coordinator the HTTP layer uses.
// Keeping it an interface lets handler tests run against an in-memory
// implementation.
type Booker interface {
	BookSeat(ctx context.Context, eventID, seatID uint64, id model.Identity) (*model.Rsvp, *model.Seat, error)
	AutoAssign(ctx context.Context, eventID uint64, id model.Identity) (*model.Rsvp, *model.Seat, error)
	Cancel(ctx context.Context, rsvpID uint64, requester model.Identity, admin bool) (*model.Rsvp, error)
}

// RsvpHandler exposes the reservation flows over HTTP.
type RsvpHandler struct {
	Svc   Booker
	Rsvps *repository.RsvpRepo
}

func NewRsvpHandler(svc Booker, rsvps *repository.RsvpRepo) *RsvpHandler {
	if svc == nil || rsvps == nil {
		panic("nil dependency passed to NewRsvpHandler")
	}
	return &RsvpHandler{Svc: svc, Rsvps: rsvps}
}

type rsvpReq struct {
	SeatID     uint64 `json:"seat_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
}

type guestRsvpReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type cancelReq struct {
	GuestEmail string `json:"guest_email"`
}

// Rsvp handles POST /v1/events/:id/rsvp, the explicit seat choice flow.
// The route sits behind optional auth: a logged-in caller books under
// their account, an anonymous one must supply guest_name and guest_email.
func (h *RsvpHandler) Rsvp(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req rsvpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id is required"})
	}

	who, ok := currentIdentity(c)
	if !ok {
		name := strings.TrimSpace(req.GuestName)
		email := normalizeEmail(req.GuestEmail)
		if name == "" || email == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_name and guest_email are required"})
		}
		who = model.GuestIdentity(name, email)
	}

	rsvp, seat, err := h.Svc.BookSeat(c.Request().Context(), eventID, req.SeatID, who)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": rsvp, "seat": seat})
}

// GuestRsvp handles POST /v1/events/:id/guest-rsvp. A guest gets a
// randomly assigned seat; the pick and the ledger write run atomically.
func (h *RsvpHandler) GuestRsvp(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req guestRsvpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and email are required"})
	}

	rsvp, seat, err := h.Svc.AutoAssign(c.Request().Context(), eventID, model.GuestIdentity(name, email))
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": rsvp, "seat": seat})
}

// Cancel handles DELETE /v1/rsvps/:id. Holders cancel their own
// reservation; guests identify themselves with guest_email in the body;
// admins may cancel anything. Cancelling twice is a no-op.
func (h *RsvpHandler) Cancel(c echo.Context) error {
	rsvpID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rsvpID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rsvp id"})
	}

	who, ok := currentIdentity(c)
	if !ok {
		var req cancelReq
		_ = c.Bind(&req)
		email := normalizeEmail(req.GuestEmail)
		if email == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_email is required"})
		}
		who = model.GuestIdentity("", email)
	}

	rsvp, err := h.Svc.Cancel(c.Request().Context(), rsvpID, who, isAdmin(c))
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": rsvp})
}

// ListMine handles GET /v1/my-rsvps for authenticated users.
func (h *RsvpHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Rsvps.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(items), "items": items})
}

// ListAll handles GET /v1/rsvps (admin): every reservation across events.
func (h *RsvpHandler) ListAll(c echo.Context) error {
	items, err := h.Rsvps.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(items), "items": items})
}

// Get handles GET /v1/rsvps/:id. Only the holder or an admin may read a
// reservation.
func (h *RsvpHandler) Get(c echo.Context) error {
	rsvpID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rsvpID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rsvp id"})
	}
	rsvp, err := h.Rsvps.GetByID(c.Request().Context(), rsvpID)
	if err != nil {
		if errors.Is(err, repository.ErrRsvpNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rsvp not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rsvp"})
	}
	if !isAdmin(c) {
		userID, err := getUserID(c)
		if err != nil || rsvp.UserID == nil || *rsvp.UserID != userID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"item": rsvp})
}

// writeBookingError maps coordinator errors to HTTP responses. Losing a
// seat race, duplicate reservations and full events are 400s the client
// can react to; only ErrBookingFailed (an unexpected storage fault) is a
// 500, and it is safe to retry because the seat was released.
func writeBookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrRsvpNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "rsvp not found"})
	case errors.Is(err, repository.ErrSeatUnavailable), errors.Is(err, repository.ErrInvalidSeatState):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat is not available"})
	case errors.Is(err, repository.ErrDuplicateReservation), errors.Is(err, service.ErrAlreadyReserved):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "an active reservation already exists for this event"})
	case errors.Is(err, service.ErrEventFull):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event is at capacity"})
	case errors.Is(err, service.ErrNoSeatsAvailable):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no seats available"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
}
