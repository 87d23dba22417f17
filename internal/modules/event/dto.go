package event

import (
	"time"

	"venuebook/internal/domain"
)

type PackageInput struct {
	Title        string  `json:"title" binding:"required"`
	Price        float64 `json:"price"`
	TicketsTotal int     `json:"tickets_total" binding:"required"`
}

type OccurrenceInput struct {
	StartDate time.Time      `json:"start_date" binding:"required"`
	EndDate   time.Time      `json:"end_date"`
	StartTime string         `json:"start_time" binding:"required"` // "15:04" or "15:04:05"
	EndTime   string         `json:"end_time" binding:"required"`
	Packages  []PackageInput `json:"packages"`
}

type RepeatInput struct {
	Mode  string     `json:"mode"` // none, daily, weekly
	Until *time.Time `json:"until"`
}

type CreateEventRequest struct {
	VenueID     int64             `json:"venue_id" binding:"required"`
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Featured    bool              `json:"featured"`
	Occurrences []OccurrenceInput `json:"occurrences" binding:"required"`
	Repeat      RepeatInput       `json:"repeat"`
}

// ExtendEventRequest appends more occurrences to an existing event, with the
// same repeat expansion as creation.
type ExtendEventRequest struct {
	Occurrences []OccurrenceInput `json:"occurrences" binding:"required"`
	Repeat      RepeatInput       `json:"repeat"`
}

type UpdateOccurrenceRequest struct {
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date"`
	StartTime string    `json:"start_time" binding:"required"`
	EndTime   string    `json:"end_time" binding:"required"`
}

// EventSummary is the listing shape: the event plus the occurrence a visitor
// cares about right now.
type EventSummary struct {
	Event   domain.Event            `json:"event"`
	Nearest *domain.EventOccurrence `json:"nearest_occurrence,omitempty"`
}
