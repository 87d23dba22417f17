package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"venuebook/internal/config"
	"venuebook/internal/database"
	"venuebook/internal/modules/booking"
	"venuebook/internal/modules/inventory"
	"venuebook/internal/modules/reaper"
	"venuebook/internal/notification"
	"venuebook/internal/pkg/clock"
	"venuebook/internal/pkg/lock"
	"venuebook/internal/repository"
)

// One-shot stale reservation sweep, for cron or manual runs against a
// deployment where the in-process reaper is disabled.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadEngineRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	bookingRepo := repository.NewBookingRepository(db)
	packageRepo := repository.NewTicketPackageRepository(db)
	eventRepo := repository.NewEventRepository(db)
	windowRepo := repository.NewAvailabilityWindowRepository(db)

	clk := clock.NewSystem()
	inventorySvc := inventory.NewService(packageRepo, lock.NewKeyedMutex(), clk)
	bookingSvc := booking.NewService(
		bookingRepo, eventRepo, windowRepo, inventorySvc,
		nil, notification.NewLogDispatcher(), clk, cfg.Currency, cfg.GatewayTimeout,
	)

	rp := reaper.New(bookingRepo, bookingSvc, clk, reaper.Config{
		SweepInterval:      cfg.SweepInterval,
		ReservationTimeout: cfg.ReservationTimeout,
		BatchSize:          cfg.ReaperBatchSize,
	})

	rejected, err := rp.Sweep(context.Background())
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	log.Printf("sweep completed: rejected=%d", rejected)
}
