package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-rsvp/internal/model"
	"github.com/iliyamo/event-rsvp/internal/repository"
)

// maxEventCapacity bounds seat generation for a single event.
const maxEventCapacity = 10000

// EventHandler bundles repositories for event management. Creation
// generates the event's seat inventory in the same transaction so an
// event is never visible without its seats.
type EventHandler struct {
	Events *repository.EventRepo
	Seats  *repository.SeatRepo
	Rsvps  *repository.RsvpRepo
}

func NewEventHandler(events *repository.EventRepo, seats *repository.SeatRepo, rsvps *repository.RsvpRepo) *EventHandler {
	if events == nil || seats == nil || rsvps == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Seats: seats, Rsvps: rsvps}
}

type eventReq struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

func parseEventDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Create handles POST /v1/events (admin). The event row and its seat
// inventory are inserted in one transaction.
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" || req.Location == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and location are required"})
	}
	date, ok := parseEventDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	if req.Capacity < 1 || req.Capacity > maxEventCapacity {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be between 1 and 10000"})
	}

	ctx := c.Request().Context()
	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	event := &model.Event{Title: req.Title, Date: date, Location: req.Location, Capacity: req.Capacity}
	if err := h.Events.CreateTx(ctx, tx, event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
	}
	if err := h.Seats.CreateBulkTx(ctx, tx, event.ID, seatLabels(req.Capacity)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create seats"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"item": event})
}

// List handles GET /v1/events. Public: anyone can browse upcoming events.
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.Events.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(events), "items": events})
}

// Get handles GET /v1/events/:id, returning the event plus its confirmed
// reservation count so clients can show remaining availability.
func (h *EventHandler) Get(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	event, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	confirmed, err := h.Rsvps.CountConfirmed(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":      event,
		"confirmed": confirmed,
		"remaining": event.Capacity - confirmed,
	})
}

// Update handles PUT /v1/events/:id (admin). Title, date and location can
// change; capacity is fixed at creation because the seat inventory is
// generated from it.
func (h *EventHandler) Update(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	event, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	if req.Capacity != 0 && req.Capacity != event.Capacity {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity cannot be changed"})
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		event.Title = title
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		event.Location = loc
	}
	if strings.TrimSpace(req.Date) != "" {
		date, ok := parseEventDate(req.Date)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		event.Date = date
	}
	if err := h.Events.Update(ctx, event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": event})
}

// Delete handles DELETE /v1/events/:id (admin). Seats and reservations
// go with the event via foreign key cascade.
func (h *EventHandler) Delete(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Events.Delete(c.Request().Context(), eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete event"})
	}
	return c.NoContent(http.StatusNoContent)
}
