package reaper

import (
	"context"
	"log"
	"sync"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/clock"
)

// BookingFinder lists reapable bookings. The cutoff comparison is inclusive:
// a booking created exactly timeout ago is already stale.
type BookingFinder interface {
	FindStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.Booking, error)
}

// Lifecycle applies the rejection. The conditional update inside it is the
// race guard: when a payment confirmation commits first, the call reports no
// change and the reaper moves on.
type Lifecycle interface {
	RejectOrCancel(ctx context.Context, bookingID int64, to domain.BookingStatus, reason string, actorID int64) (bool, error)
}

type Config struct {
	SweepInterval      time.Duration
	ReservationTimeout time.Duration
	BatchSize          int
}

func DefaultConfig() Config {
	return Config{
		SweepInterval:      time.Minute,
		ReservationTimeout: 15 * time.Minute,
		BatchSize:          200,
	}
}

// Stats is a snapshot of reaper counters since process start.
type Stats struct {
	Sweeps    int64
	Swept     int64
	Rejected  int64
	Failed    int64
	LastSweep time.Time
}

// Reaper is the backstop for reservations whose normal flow never released
// them (crashed process, abandoned checkout). It forces stale pending and
// on-hold bookings to rejected, which releases their inventory.
type Reaper struct {
	bookings  BookingFinder
	lifecycle Lifecycle
	clock     clock.Clock
	cfg       Config

	mu    sync.Mutex
	stats Stats

	stopCh chan struct{}
	doneCh chan struct{}
}

func New(bookings BookingFinder, lifecycle Lifecycle, clk clock.Clock, cfg Config) *Reaper {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.ReservationTimeout <= 0 {
		cfg.ReservationTimeout = DefaultConfig().ReservationTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Reaper{
		bookings:  bookings,
		lifecycle: lifecycle,
		clock:     clk,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Sweep runs one pass. Per-booking failures are logged and skipped so one bad
// record cannot starve the rest; the next sweep retries it.
func (r *Reaper) Sweep(ctx context.Context) (rejected int, err error) {
	now := r.clock.Now()
	cutoff := now.Add(-r.cfg.ReservationTimeout)

	stale, err := r.bookings.FindStale(ctx, cutoff, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	var failed int
	for _, b := range stale {
		changed, rerr := r.lifecycle.RejectOrCancel(ctx, b.ID, domain.BookingRejected, "stale reservation", 0)
		if rerr != nil {
			failed++
			log.Printf("level=error msg=reaper failed to reject booking booking_id=%d err=%v", b.ID, rerr)
			continue
		}
		if changed {
			rejected++
		}
	}

	r.mu.Lock()
	r.stats.Sweeps++
	r.stats.Swept += int64(len(stale))
	r.stats.Rejected += int64(rejected)
	r.stats.Failed += int64(failed)
	r.stats.LastSweep = now
	r.mu.Unlock()

	if len(stale) > 0 {
		log.Printf("level=info msg=reaper sweep completed candidates=%d rejected=%d failed=%d cutoff=%s",
			len(stale), rejected, failed, cutoff.Format(time.RFC3339))
	}
	return rejected, nil
}

// Schedule starts the recurring sweep goroutine. Call Stop to shut it down.
func (r *Reaper) Schedule(ctx context.Context) {
	go func() {
		defer close(r.doneCh)
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := r.Sweep(ctx); err != nil {
					log.Printf("level=error msg=reaper sweep failed err=%v", err)
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the sweep goroutine and waits for it to exit.
func (r *Reaper) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *Reaper) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
