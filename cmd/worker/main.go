package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rsolheim/unitbooking/config"
	"github.com/rsolheim/unitbooking/internal/email"
	"github.com/rsolheim/unitbooking/internal/kafka"
	"github.com/rsolheim/unitbooking/internal/obs"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obs.NewLogger(cfg.Log.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(email.Templates{
		Approved:  cfg.Email.ApprovedTemplateID,
		Rejected:  cfg.Email.RejectedTemplateID,
		Confirmed: cfg.Email.ConfirmedTemplateID,
	}, logger)

	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		var event kafka.BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Warn("decode event failed", "error", err)
			return nil
		}
		// Delivery is best effort: a failed send is logged and the
		// message is not retried, since the booking state change it
		// describes already committed.
		if err := sender.Send(ctx, event); err != nil {
			logger.Warn("send notification failed", "type", event.Type, "error", err)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("consumer stopped: %v", err)
	}
}
