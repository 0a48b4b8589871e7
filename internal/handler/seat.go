package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-rsvp/internal/model"
	"github.com/iliyamo/event-rsvp/internal/repository"
)

// SeatHandler serves the seat map and admin seat maintenance.
type SeatHandler struct {
	Seats  *repository.SeatRepo
	Events *repository.EventRepo
}

func NewSeatHandler(seats *repository.SeatRepo, events *repository.EventRepo) *SeatHandler {
	if seats == nil || events == nil {
		panic("nil repository passed to NewSeatHandler")
	}
	return &SeatHandler{Seats: seats, Events: events}
}

// ListByEvent handles GET /v1/events/:id/seats. Public seat map; a seat
// in PROCESSING shows as such so clients can render it as taken while
// the race resolves.
func (h *SeatHandler) ListByEvent(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	seats, err := h.Seats.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	if status := c.QueryParam("status"); status != "" {
		filtered := make([]model.Seat, 0, len(seats))
		for _, s := range seats {
			if s.Status == status {
				filtered = append(filtered, s)
			}
		}
		seats = filtered
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].ID < seats[j].ID })
	return c.JSON(http.StatusOK, echo.Map{
		"event_id": eventID,
		"count":    len(seats),
		"items":    seats,
	})
}

// Block handles POST /v1/seats/:id/block (admin). Only an AVAILABLE seat
// can be pulled from sale.
func (h *SeatHandler) Block(c echo.Context) error {
	return h.transition(c, h.Seats.Block, "seat is not available")
}

// Unblock handles POST /v1/seats/:id/unblock (admin).
func (h *SeatHandler) Unblock(c echo.Context) error {
	return h.transition(c, h.Seats.Unblock, "seat is not blocked")
}

func (h *SeatHandler) transition(c echo.Context, op func(ctx context.Context, seatID uint64) error, conflictMsg string) error {
	seatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || seatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	ctx := c.Request().Context()
	if err := op(ctx, seatID); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, repository.ErrInvalidSeatState):
			return c.JSON(http.StatusConflict, echo.Map{"error": conflictMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update seat"})
	}
	seat, err := h.Seats.GetByID(ctx, seatID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seat"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": seat})
}
