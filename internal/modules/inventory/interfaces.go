package inventory

import (
	"context"
	"time"

	"venuebook/internal/domain"
)

// PackageRepository is the storage seam for ticket pools. The conditional
// decrement must be atomic at the storage layer; it is the actual oversell
// guard under multi-instance deployment.
type PackageRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.TicketPackage, error)
	DecrementIfAvailable(ctx context.Context, id int64, qty int, now time.Time) (bool, error)
	IncrementSaturating(ctx context.Context, id int64, qty int, now time.Time) error
}
