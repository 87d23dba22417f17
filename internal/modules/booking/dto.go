package booking

import "time"

type CreateEventBookingRequest struct {
	UserID       int64 `json:"user_id"`
	OccurrenceID int64 `json:"occurrence_id" binding:"required"`
	PackageID    int64 `json:"package_id" binding:"required"`
	Quantity     int   `json:"quantity" binding:"required"`
}

type CreateVenueBookingRequest struct {
	UserID      int64     `json:"user_id"`
	VenueID     int64     `json:"venue_id" binding:"required"`
	BookingDate time.Time `json:"booking_date" binding:"required"`
}

type PaymentInitResponse struct {
	BookingID   int64  `json:"booking_id"`
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

type RedeemTicketRequest struct {
	Code string `json:"code" binding:"required"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}
