package domain

import "time"

type EventStatus string

const (
	EventActive   EventStatus = "active"
	EventDisabled EventStatus = "disabled"
)

type RepeatMode string

const (
	RepeatNone   RepeatMode = "none"
	RepeatDaily  RepeatMode = "daily"
	RepeatWeekly RepeatMode = "weekly"
)

type Event struct {
	ID          int64       `json:"id"`
	VenueID     int64       `json:"venue_id" validate:"required"`
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description,omitempty"`
	Featured    bool        `json:"featured"`
	Status      EventStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Occurrences []EventOccurrence `json:"occurrences,omitempty"`
}

// EventOccurrence is a single dated instance of an event. StartDate/EndDate are
// date-only; StartTime/EndTime are times of day within those dates.
type EventOccurrence struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Packages []TicketPackage `json:"packages,omitempty"`
}

// StartInstant is the moment the occurrence begins.
func (o EventOccurrence) StartInstant() time.Time {
	return o.StartTime.At(o.StartDate)
}

// EndInstant is the moment the occurrence ends.
func (o EventOccurrence) EndInstant() time.Time {
	return o.EndTime.At(o.EndDate)
}

// TicketPackage is a finite pool of same-priced tickets for one occurrence.
// TicketsRemaining is mutated only through the inventory reservation service.
type TicketPackage struct {
	ID               int64     `json:"id"`
	OccurrenceID     int64     `json:"occurrence_id"`
	Title            string    `json:"title" validate:"required"`
	Price            float64   `json:"price" validate:"gte=0"`
	TicketsTotal     int       `json:"tickets_total" validate:"gte=0"`
	TicketsRemaining int       `json:"tickets_remaining"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
