package service

import (
	"context"

	"github.com/iliyamo/event-rsvp/internal/model"
)

// Notification kinds passed to the Notifier.
const (
	NotifyConfirmed = "confirmed"
	NotifyCancelled = "cancelled"
)

// Notifier is the fire-and-forget sink for confirmation and cancellation
// messages. Implementations must not block the booking flow for long and
// may fail; the coordinator logs and swallows every error, it never
// reverses a booking over a lost notification.
type Notifier interface {
	Send(ctx context.Context, kind string, rsvp *model.Rsvp, event *model.Event, seatLabel string) error
}
