package booking

import (
	"context"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/modules/inventory"
)

// BookingRepository is the persistence seam for bookings and their tickets.
// All conditional updates return whether a row actually changed; the lifecycle
// relies on that for race safety and idempotence.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus, reason string, actorID int64, now time.Time) (bool, error)
	GetTicketByCode(ctx context.Context, code string) (*domain.Ticket, error)
	GetTicketByID(ctx context.Context, id int64) (*domain.Ticket, error)
	RedeemTicketIf(ctx context.Context, ticketID, redeemerID int64, now time.Time) (bool, error)
	RejectTicketIf(ctx context.Context, ticketID, adminID int64, reason string, now time.Time) (bool, error)
}

// OccurrenceRepository loads event occurrences with their ticket packages.
type OccurrenceRepository interface {
	GetOccurrence(ctx context.Context, id int64) (*domain.EventOccurrence, error)
}

// WindowRepository loads availability windows per owning entity.
type WindowRepository interface {
	GetForOwner(ctx context.Context, ownerType domain.WindowOwnerType, ownerID int64) ([]domain.AvailabilityWindow, error)
}

// ReservationService claims and returns ticket inventory. It is the only
// component that mutates remaining counts.
type ReservationService interface {
	Reserve(ctx context.Context, packageID int64, qty int) (*inventory.Reservation, error)
	Release(ctx context.Context, packageID int64, qty int) error
}

// PaymentGateway is the abstract payment contract. Calls are long-latency and
// must be bounded by the configured timeout; expiry is a failure, never a
// success.
type PaymentGateway interface {
	Initiate(ctx context.Context, amount float64, currency, orderRef string) (orderID, redirectURL string, err error)
	CheckStatus(ctx context.Context, orderID string) (string, error)
}

// NotificationDispatcher fans out user-facing notifications. Dispatch is
// fire-and-forget: failures never roll back a state transition.
type NotificationDispatcher interface {
	Notify(ctx context.Context, userID int64, event string, payload map[string]any) error
	ClearBookingReminders(ctx context.Context, bookingID int64) error
}
