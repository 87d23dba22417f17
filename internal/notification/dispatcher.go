package notification

import (
	"context"
	"log"
)

// LogDispatcher satisfies the booking module's dispatcher seam by writing
// key=value log lines. The real fan-out transport (push/email) lives outside
// this service; swapping it in is a wiring change in main.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Notify(ctx context.Context, userID int64, event string, payload map[string]any) error {
	log.Printf("level=info msg=notification dispatched user_id=%d event=%s payload=%v", userID, event, payload)
	return nil
}

func (d *LogDispatcher) ClearBookingReminders(ctx context.Context, bookingID int64) error {
	log.Printf("level=info msg=booking reminders cleared booking_id=%d", bookingID)
	return nil
}
