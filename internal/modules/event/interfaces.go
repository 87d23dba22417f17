package event

import (
	"context"
	"time"

	"venuebook/internal/domain"
)

// EventRepository persists events with their occurrences and packages.
type EventRepository interface {
	Create(ctx context.Context, e *domain.Event) error
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	GetOccurrence(ctx context.Context, id int64) (*domain.EventOccurrence, error)
	ListActive(ctx context.Context, limit, offset int) ([]domain.Event, error)
	AddOccurrences(ctx context.Context, eventID int64, occs []domain.EventOccurrence) error
	UpdateOccurrenceTimes(ctx context.Context, id int64, startDate, endDate time.Time, startTime, endTime domain.TimeOfDay, now time.Time) error
	SetStatus(ctx context.Context, id int64, status domain.EventStatus, now time.Time) error
}

// OccurrencePicker selects the occurrence shown on event listings.
type OccurrencePicker interface {
	NearestOccurrenceForDisplay(occurrences []domain.EventOccurrence) *domain.EventOccurrence
}
