package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is published after a reservation state change commits.
// Notification delivery is driven entirely from these events; a publish
// failure never unwinds the state change that triggered it.
type BookingEvent struct {
	Type           string `json:"type"`
	BookingID      int64  `json:"booking_id,omitempty"`
	RequestID      int64  `json:"request_id,omitempty"`
	LineID         int64  `json:"line_id,omitempty"`
	UnitID         int64  `json:"unit_id"`
	UnitCode       string `json:"unit_code,omitempty"`
	TenantName     string `json:"tenant_name,omitempty"`
	Company        string `json:"company,omitempty"`
	RecipientEmail string `json:"recipient_email,omitempty"`
	CheckinDate    string `json:"checkin_date"`
	CheckoutDate   string `json:"checkout_date"`
	PriceTotal     int64  `json:"price_total,omitempty"`
}

const (
	EventBookingCreated   = "booking_created"
	EventBookingUpdated   = "booking_updated"
	EventBookingCancelled = "booking_cancelled"
	EventRequestSubmitted = "request_submitted"
	EventLineApproved     = "request_line_approved"
	EventLineRejected     = "request_line_rejected"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
