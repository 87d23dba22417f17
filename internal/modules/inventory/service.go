package inventory

import (
	"context"
	"errors"
	"fmt"

	"venuebook/internal/pkg/clock"
	"venuebook/internal/pkg/lock"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Reservation is the handle returned by a successful Reserve. Callers pass it
// back to Release when a booking is rejected or cancelled; the lifecycle's
// state gating ensures Release runs at most once per reservation.
type Reservation struct {
	PackageID int64
	Quantity  int
}

// Service is the only component allowed to mutate a package's remaining ticket
// count. The per-package lock serializes in-process contenders as a fast-fail
// optimization; the repository's conditional decrement is the correctness
// boundary.
type Service struct {
	packages PackageRepository
	locks    lock.Provider
	clock    clock.Clock
}

func NewService(packages PackageRepository, locks lock.Provider, clk clock.Clock) *Service {
	return &Service{packages: packages, locks: locks, clock: clk}
}

func packageKey(id int64) string {
	return fmt.Sprintf("package:%d", id)
}

// Reserve claims qty units from the package pool or fails with ErrOutOfStock.
func (s *Service) Reserve(ctx context.Context, packageID int64, qty int) (*Reservation, error) {
	if qty <= 0 {
		return nil, ErrValidation
	}

	release, err := s.locks.Acquire(ctx, packageKey(packageID))
	if err != nil {
		return nil, fmt.Errorf("acquire package lock: %w", err)
	}
	defer release()

	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if pkg.TicketsRemaining < qty {
		return nil, ErrOutOfStock
	}

	ok, err := s.packages.DecrementIfAvailable(ctx, packageID, qty, s.clock.Now())
	if err != nil {
		// The tickets_remaining >= 0 check constraint is a backstop for writers
		// that bypass the conditional WHERE clause.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return nil, ErrOutOfStock
		}
		return nil, err
	}
	if !ok {
		// Someone else, possibly in another process, won the remaining stock
		// between our read and the decrement.
		return nil, ErrOutOfStock
	}

	return &Reservation{PackageID: packageID, Quantity: qty}, nil
}

// Release returns qty units to the pool. The repository increment saturates at
// tickets_total, so a replayed release cannot push remaining above total.
func (s *Service) Release(ctx context.Context, packageID int64, qty int) error {
	if qty <= 0 {
		return ErrValidation
	}

	release, err := s.locks.Acquire(ctx, packageKey(packageID))
	if err != nil {
		return fmt.Errorf("acquire package lock: %w", err)
	}
	defer release()

	return s.packages.IncrementSaturating(ctx, packageID, qty, s.clock.Now())
}
