package domain

import "time"

type VenueStatus string

const (
	VenueActive   VenueStatus = "active"
	VenueDisabled VenueStatus = "disabled"
)

type Venue struct {
	ID          int64       `json:"id"`
	OwnerID     int64       `json:"owner_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	Featured    bool        `json:"featured"`
	Status      VenueStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"-"`
}
