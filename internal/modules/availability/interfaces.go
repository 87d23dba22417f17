package availability

import (
	"context"

	"venuebook/internal/domain"
)

// WindowRepository loads persisted availability windows per owning entity.
type WindowRepository interface {
	GetForOwner(ctx context.Context, ownerType domain.WindowOwnerType, ownerID int64) ([]domain.AvailabilityWindow, error)
}

// VenueRepository lists venues for the open-now query surface.
type VenueRepository interface {
	ListActive(ctx context.Context, limit, offset int) ([]domain.Venue, error)
}
