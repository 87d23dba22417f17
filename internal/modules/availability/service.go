package availability

import (
	"context"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/clock"
)

// Service answers temporal questions about availability windows and event
// occurrences. All comparisons against "now" go through the injected clock.
type Service struct {
	windows WindowRepository
	venues  VenueRepository
	clock   clock.Clock
}

func NewService(windows WindowRepository, venues VenueRepository, clk clock.Clock) *Service {
	return &Service{windows: windows, venues: venues, clock: clk}
}

// IsCurrentlyAvailable applies union semantics across windows at the injected
// clock's now. An empty window set is never available.
func (s *Service) IsCurrentlyAvailable(windows []domain.AvailabilityWindow) bool {
	return domain.AnyOpenAt(windows, s.clock.Now())
}

// NextOccurrence computes the earliest future opening across all windows,
// starting from the given instant. A window opening later today counts; one
// that already started today wraps to the next week.
func (s *Service) NextOccurrence(windows []domain.AvailabilityWindow, from time.Time) (time.Time, error) {
	if len(windows) == 0 {
		return time.Time{}, ErrNoAvailability
	}

	var best time.Time
	for _, w := range windows {
		for _, day := range w.Days {
			daysAhead := (int(day) - int(from.Weekday()) + 7) % 7
			if daysAhead == 0 && domain.TimeOfDayOf(from) >= w.From {
				daysAhead = 7
			}
			candidate := w.From.At(from.AddDate(0, 0, daysAhead))
			if best.IsZero() || candidate.Before(best) {
				best = candidate
			}
		}
	}
	if best.IsZero() {
		return time.Time{}, ErrNoAvailability
	}
	return best, nil
}

// NearestOccurrenceForDisplay picks the single most relevant instance of a
// recurring event: the soonest upcoming occurrence, or failing that the most
// recent past one. Returns nil for an empty list.
func (s *Service) NearestOccurrenceForDisplay(occurrences []domain.EventOccurrence) *domain.EventOccurrence {
	now := s.clock.Now()

	var upcoming, past *domain.EventOccurrence
	for i := range occurrences {
		o := &occurrences[i]
		start := o.StartInstant()
		if !start.Before(now) {
			if upcoming == nil || start.Before(upcoming.StartInstant()) {
				upcoming = o
			}
		} else {
			if past == nil || start.After(past.StartInstant()) {
				past = o
			}
		}
	}
	if upcoming != nil {
		return upcoming
	}
	return past
}

// VenueOpenNow reports whether the venue's windows cover the current instant.
func (s *Service) VenueOpenNow(ctx context.Context, venueID int64) (bool, error) {
	windows, err := s.windows.GetForOwner(ctx, domain.WindowOwnerVenue, venueID)
	if err != nil {
		return false, err
	}
	return s.IsCurrentlyAvailable(windows), nil
}

// VenueNextOpening returns the venue's next opening instant from now.
func (s *Service) VenueNextOpening(ctx context.Context, venueID int64) (time.Time, error) {
	windows, err := s.windows.GetForOwner(ctx, domain.WindowOwnerVenue, venueID)
	if err != nil {
		return time.Time{}, err
	}
	return s.NextOccurrence(windows, s.clock.Now())
}

// OpenVenues filters active venues down to the ones open right now, for the
// "available today" listing.
func (s *Service) OpenVenues(ctx context.Context, limit, offset int) ([]domain.Venue, error) {
	venues, err := s.venues.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Venue, 0, len(venues))
	for _, v := range venues {
		windows, err := s.windows.GetForOwner(ctx, domain.WindowOwnerVenue, v.ID)
		if err != nil {
			return nil, err
		}
		if s.IsCurrentlyAvailable(windows) {
			out = append(out, v)
		}
	}
	return out, nil
}

// VenueOpenInRange reports whether any of the venue's weekdays fall inside the
// date range (date-only semantics, times ignored).
func (s *Service) VenueOpenInRange(ctx context.Context, venueID int64, start, end time.Time) (bool, error) {
	if end.Before(start) {
		return false, ErrValidation
	}
	windows, err := s.windows.GetForOwner(ctx, domain.WindowOwnerVenue, venueID)
	if err != nil {
		return false, err
	}
	return domain.OverlapsRange(windows, start, end), nil
}
