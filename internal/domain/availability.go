package domain

import (
	"errors"
	"fmt"
	"time"
)

// TimeOfDay is a clock time within a single day, stored as seconds since midnight.
type TimeOfDay int

const EndOfDay TimeOfDay = 24*3600 - 1 // 23:59:59

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
	}
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)%3600/60, int(t)%60)
}

// At anchors the time of day onto a calendar date in the date's location.
func (t TimeOfDay) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(t)/3600, int(t)%3600/60, int(t)%60, 0, day.Location())
}

// AvailabilityWindow is a recurring weekly availability range: a set of weekdays
// plus a daily [From, To] time range. To is inclusive. A window never wraps past
// midnight; overnight ranges are not modeled.
type AvailabilityWindow struct {
	Days []time.Weekday `json:"days"`
	From TimeOfDay      `json:"from"`
	To   TimeOfDay      `json:"to"`
}

var ErrInvalidWindow = errors.New("invalid availability window")

func (w AvailabilityWindow) Validate() error {
	if len(w.Days) == 0 {
		return fmt.Errorf("%w: empty day set", ErrInvalidWindow)
	}
	if w.From > w.To {
		return fmt.Errorf("%w: from %s after to %s", ErrInvalidWindow, w.From, w.To)
	}
	return nil
}

func (w AvailabilityWindow) hasDay(d time.Weekday) bool {
	for _, wd := range w.Days {
		if wd == d {
			return true
		}
	}
	return false
}

// IsOpenAt reports whether the window covers the given instant.
func (w AvailabilityWindow) IsOpenAt(t time.Time) bool {
	if !w.hasDay(t.Weekday()) {
		return false
	}
	tod := TimeOfDayOf(t)
	return tod >= w.From && tod <= w.To
}

// AnyOpenAt applies union semantics: an entity with several windows is open at t
// iff any single window is.
func AnyOpenAt(windows []AvailabilityWindow, t time.Time) bool {
	for _, w := range windows {
		if w.IsOpenAt(t) {
			return true
		}
	}
	return false
}

// OverlapsRange reports whether any calendar day in [start, end] matches a
// window weekday. Date-only semantics: the daily time range is ignored.
func OverlapsRange(windows []AvailabilityWindow, start, end time.Time) bool {
	if end.Before(start) {
		return false
	}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	for i := 0; i < 7 && !day.After(last); i++ {
		for _, w := range windows {
			if w.hasDay(day.Weekday()) {
				return true
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}

// WindowOwnerType identifies the kind of entity a persisted window belongs to.
type WindowOwnerType string

const (
	WindowOwnerVenue      WindowOwnerType = "venue"
	WindowOwnerOffer      WindowOwnerType = "offer"
	WindowOwnerLoyalty    WindowOwnerType = "loyalty"
	WindowOwnerOccurrence WindowOwnerType = "occurrence"
)
