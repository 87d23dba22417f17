package domain

import "time"

type BookingKind string

const (
	KindVenue BookingKind = "venue"
	KindEvent BookingKind = "event"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingOnHold    BookingStatus = "on_hold"
	BookingPaid      BookingStatus = "paid"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// NonTerminalStatuses are the states a booking can still leave.
var NonTerminalStatuses = []BookingStatus{BookingPending, BookingOnHold}

func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingPaid, BookingApproved, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

// allowed transitions per kind; venue and event bookings share pending but
// diverge afterwards.
var eventTransitions = map[BookingStatus][]BookingStatus{
	BookingPending: {BookingOnHold, BookingPaid, BookingRejected},
	BookingOnHold:  {BookingPaid, BookingRejected},
}

var venueTransitions = map[BookingStatus][]BookingStatus{
	BookingPending: {BookingApproved, BookingRejected, BookingCancelled},
}

// CanTransition reports whether a booking of the given kind may move from one
// status to another.
func CanTransition(kind BookingKind, from, to BookingStatus) bool {
	table := eventTransitions
	if kind == KindVenue {
		table = venueTransitions
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketRedeemed TicketStatus = "redeemed"
	TicketRejected TicketStatus = "rejected"
)

// Booking is a user's claim on a venue date or on event ticket inventory.
// Event bookings own one Ticket per reserved unit; venue bookings carry none.
type Booking struct {
	ID           int64         `json:"id"`
	Kind         BookingKind   `json:"kind"`
	UserID       int64         `json:"user_id" validate:"required"`
	VenueID      *int64        `json:"venue_id,omitempty"`
	OccurrenceID *int64        `json:"occurrence_id,omitempty"`
	PackageID    *int64        `json:"package_id,omitempty"`
	BookingDate  *time.Time    `json:"booking_date,omitempty"`
	Quantity     int           `json:"quantity"`
	TotalPrice   float64       `json:"total_price"`
	Status       BookingStatus `json:"status"`
	StatusReason string        `json:"status_reason,omitempty"`
	ModifiedBy   int64         `json:"modified_by,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	Tickets []Ticket `json:"tickets,omitempty"`
}

// Ticket is one reserved unit of an event booking. Code is the secret
// redemption code handed to the buyer.
type Ticket struct {
	ID           int64        `json:"id"`
	BookingID    int64        `json:"booking_id"`
	Code         string       `json:"code"`
	Status       TicketStatus `json:"status"`
	RedeemedBy   *int64       `json:"redeemed_by,omitempty"`
	RedeemedAt   *time.Time   `json:"redeemed_at,omitempty"`
	RejectedBy   *int64       `json:"rejected_by,omitempty"`
	RejectReason string       `json:"reject_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
