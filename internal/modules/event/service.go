package event

import (
	"context"
	"errors"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/clock"
	"venuebook/internal/pkg/validator"

	"gorm.io/gorm"
)

// A runaway repeat rule must not mass-insert rows; one year of daily clones is
// the ceiling.
const maxGeneratedOccurrences = 366

// Service manages events, their occurrences and the ticket packages sold for
// them. Remaining ticket counts are initialized here and only ever mutated by
// the inventory reservation service afterwards.
type Service struct {
	events EventRepository
	picker OccurrencePicker
	clock  clock.Clock
}

func NewService(events EventRepository, picker OccurrencePicker, clk clock.Clock) *Service {
	return &Service{events: events, picker: picker, clock: clk}
}

// CreateEvent persists an event with its occurrences. When a repeat rule is
// present every submitted occurrence is cloned daily or weekly up to the until
// date (inclusive), packages included, each clone starting with a full pool.
func (s *Service) CreateEvent(ctx context.Context, req CreateEventRequest) (*domain.Event, error) {
	if req.VenueID == 0 || req.Title == "" || len(req.Occurrences) == 0 {
		return nil, ErrValidation
	}
	mode, err := repeatModeOf(req.Repeat)
	if err != nil {
		return nil, err
	}

	e := &domain.Event{
		VenueID:     req.VenueID,
		Title:       req.Title,
		Description: req.Description,
		Featured:    req.Featured,
		Status:      domain.EventActive,
	}
	for _, in := range req.Occurrences {
		seed, err := occurrenceFromInput(in)
		if err != nil {
			return nil, err
		}
		expanded, err := expandOccurrences(*seed, mode, req.Repeat.Until)
		if err != nil {
			return nil, err
		}
		e.Occurrences = append(e.Occurrences, expanded...)
	}

	if errs := validator.Validate(e); errs != nil {
		return nil, ErrValidation
	}

	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// repeatModeOf validates a repeat rule; any repeating mode requires an until
// date.
func repeatModeOf(in RepeatInput) (domain.RepeatMode, error) {
	mode := domain.RepeatMode(in.Mode)
	if mode == "" {
		mode = domain.RepeatNone
	}
	switch mode {
	case domain.RepeatNone:
		return mode, nil
	case domain.RepeatDaily, domain.RepeatWeekly:
		if in.Until == nil {
			return "", ErrValidation
		}
		return mode, nil
	}
	return "", ErrValidation
}

func occurrenceFromInput(in OccurrenceInput) (*domain.EventOccurrence, error) {
	startTime, err := domain.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return nil, ErrValidation
	}
	endTime, err := domain.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return nil, ErrValidation
	}

	startDate := truncateToDate(in.StartDate)
	endDate := startDate
	if !in.EndDate.IsZero() {
		endDate = truncateToDate(in.EndDate)
	}

	o := &domain.EventOccurrence{
		StartDate: startDate,
		EndDate:   endDate,
		StartTime: startTime,
		EndTime:   endTime,
	}
	if !o.EndInstant().After(o.StartInstant()) {
		return nil, ErrValidation
	}

	for _, p := range in.Packages {
		if p.TicketsTotal < 0 || p.Price < 0 {
			return nil, ErrValidation
		}
		o.Packages = append(o.Packages, domain.TicketPackage{
			Title:            p.Title,
			Price:            p.Price,
			TicketsTotal:     p.TicketsTotal,
			TicketsRemaining: p.TicketsTotal,
		})
	}
	return o, nil
}

// expandOccurrences returns the seed plus its repeat clones. Each clone shifts
// both dates by the step and carries fresh copies of the packages.
func expandOccurrences(seed domain.EventOccurrence, mode domain.RepeatMode, until *time.Time) ([]domain.EventOccurrence, error) {
	out := []domain.EventOccurrence{seed}
	if mode == domain.RepeatNone {
		return out, nil
	}

	step := 1
	if mode == domain.RepeatWeekly {
		step = 7
	}
	limit := truncateToDate(*until)
	if limit.Before(seed.StartDate) {
		return nil, ErrValidation
	}

	duration := seed.EndDate.Sub(seed.StartDate)
	for d := seed.StartDate.AddDate(0, 0, step); !d.After(limit); d = d.AddDate(0, 0, step) {
		if len(out) >= maxGeneratedOccurrences {
			break
		}
		clone := domain.EventOccurrence{
			StartDate: d,
			EndDate:   d.Add(duration),
			StartTime: seed.StartTime,
			EndTime:   seed.EndTime,
		}
		for _, p := range seed.Packages {
			clone.Packages = append(clone.Packages, domain.TicketPackage{
				Title:            p.Title,
				Price:            p.Price,
				TicketsTotal:     p.TicketsTotal,
				TicketsRemaining: p.TicketsTotal,
			})
		}
		out = append(out, clone)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListActive returns active events decorated with the occurrence nearest to
// now, featured first.
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]EventSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	events, err := s.events.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, EventSummary{
			Event:   e,
			Nearest: s.picker.NearestOccurrenceForDisplay(e.Occurrences),
		})
	}
	return out, nil
}

// ExtendOccurrences appends occurrences to an existing event, expanding any
// repeat rule the same way creation does. Each new package starts with a full
// pool.
func (s *Service) ExtendOccurrences(ctx context.Context, eventID int64, req ExtendEventRequest) ([]domain.EventOccurrence, error) {
	if len(req.Occurrences) == 0 {
		return nil, ErrValidation
	}
	mode, err := repeatModeOf(req.Repeat)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	var occs []domain.EventOccurrence
	for _, in := range req.Occurrences {
		seed, err := occurrenceFromInput(in)
		if err != nil {
			return nil, err
		}
		expanded, err := expandOccurrences(*seed, mode, req.Repeat.Until)
		if err != nil {
			return nil, err
		}
		occs = append(occs, expanded...)
	}

	if err := s.events.AddOccurrences(ctx, eventID, occs); err != nil {
		return nil, err
	}
	return occs, nil
}

// UpdateOccurrenceTimes reschedules a single occurrence.
func (s *Service) UpdateOccurrenceTimes(ctx context.Context, occurrenceID int64, req UpdateOccurrenceRequest) error {
	in := OccurrenceInput{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	o, err := occurrenceFromInput(in)
	if err != nil {
		return err
	}

	if _, err := s.events.GetOccurrence(ctx, occurrenceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.events.UpdateOccurrenceTimes(ctx, occurrenceID, o.StartDate, o.EndDate, o.StartTime, o.EndTime, s.clock.Now())
}

// Disable soft-hides an event. Rows stay put because bookings reference them.
func (s *Service) Disable(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, domain.EventDisabled)
}

func (s *Service) Enable(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, domain.EventActive)
}

func (s *Service) setStatus(ctx context.Context, id int64, status domain.EventStatus) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.events.SetStatus(ctx, id, status, s.clock.Now())
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
