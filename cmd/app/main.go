package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rsolheim/unitbooking/config"
	"github.com/rsolheim/unitbooking/internal/bootstrap"
	"github.com/rsolheim/unitbooking/internal/cache"
	"github.com/rsolheim/unitbooking/internal/kafka"
	"github.com/rsolheim/unitbooking/internal/obs"
	"github.com/rsolheim/unitbooking/internal/repository"
	"github.com/rsolheim/unitbooking/internal/service/booking"
	"github.com/rsolheim/unitbooking/internal/service/report"
	"github.com/rsolheim/unitbooking/internal/service/request"
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

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.UnitsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	storeTimeout := time.Duration(cfg.Booking.StoreTimeoutSeconds) * time.Second

	unitRepo := repository.NewUnitRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	bookingService := booking.NewBookingService(
		bookingRepo,
		unitRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		storeTimeout,
		logger,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	requestService := request.NewRequestService(
		requestRepo,
		producer,
		cfg.Kafka.BookingEventsTopic,
		cfg.Booking.MaxRequestLines,
		storeTimeout,
		logger,
		request.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	reportService := report.NewReportService(reportRepo, unitRepo, storeTimeout)

	if err := bootstrap.Run(ctx, cfg, bookingService, requestService, reportService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
