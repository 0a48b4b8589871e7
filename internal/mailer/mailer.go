// Package mailer delivers RSVP emails over SMTP. It is only ever invoked
// from the queue consumer, so a lost email never reaches back into a
// booking.
package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// Mailer sends plain-text notification emails. With an empty host it is
// disabled and Send becomes a logged no-op, which keeps local setups
// working without an SMTP account.
type Mailer struct {
	host     string
	port     string
	from     string
	password string
	log      zerolog.Logger
}

// New builds a Mailer from SMTP settings.
func New(host, port, from, password string, log zerolog.Logger) *Mailer {
	return &Mailer{host: host, port: port, from: from, password: password, log: log}
}

// Send emails the recipient about a confirmed or cancelled RSVP.
func (m *Mailer) Send(kind, recipient, eventTitle, seatLabel string) error {
	if m.host == "" {
		m.log.Debug().Str("to", recipient).Str("kind", kind).Msg("mailer disabled, skipping email")
		return nil
	}

	var subject, body string
	switch kind {
	case "confirmed":
		subject = "Your RSVP is confirmed"
		body = fmt.Sprintf("Hello!\n\nYour RSVP for %q is confirmed.", eventTitle)
		if seatLabel != "" {
			body += fmt.Sprintf(" Your seat is %s.", seatLabel)
		}
	case "cancelled":
		subject = "Your RSVP was cancelled"
		body = fmt.Sprintf("Hello!\n\nYour RSVP for %q has been cancelled. The seat is available again.", eventTitle)
	default:
		return fmt.Errorf("unknown notification kind %q", kind)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, recipient, subject, body)

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("to", recipient).Msg("send email")
		return fmt.Errorf("send email: %w", err)
	}
	m.log.Info().Str("to", recipient).Str("kind", kind).Msg("email sent")
	return nil
}
