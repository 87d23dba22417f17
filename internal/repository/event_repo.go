package repository

import (
	"context"
	"time"

	"venuebook/internal/domain"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

type eventModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	VenueID     int64     `gorm:"column:venue_id;index"`
	Title       string    `gorm:"column:title"`
	Description *string   `gorm:"column:description"`
	Featured    bool      `gorm:"column:featured"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`

	Occurrences []occurrenceModel `gorm:"foreignKey:EventID"`
}

func (eventModel) TableName() string { return "events" }

type occurrenceModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	EventID   int64     `gorm:"column:event_id;index"`
	StartDate time.Time `gorm:"column:start_date"`
	EndDate   time.Time `gorm:"column:end_date"`
	StartTime int       `gorm:"column:start_time"` // seconds since midnight
	EndTime   int       `gorm:"column:end_time"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	Packages []ticketPackageModel `gorm:"foreignKey:OccurrenceID"`
}

func (occurrenceModel) TableName() string { return "event_occurrences" }

func toDomainOccurrence(m occurrenceModel) *domain.EventOccurrence {
	o := &domain.EventOccurrence{
		ID:        m.ID,
		EventID:   m.EventID,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		StartTime: domain.TimeOfDay(m.StartTime),
		EndTime:   domain.TimeOfDay(m.EndTime),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, pm := range m.Packages {
		o.Packages = append(o.Packages, *toDomainPackage(pm))
	}
	return o
}

func toOccurrenceModel(o *domain.EventOccurrence) occurrenceModel {
	m := occurrenceModel{
		ID:        o.ID,
		EventID:   o.EventID,
		StartDate: o.StartDate,
		EndDate:   o.EndDate,
		StartTime: int(o.StartTime),
		EndTime:   int(o.EndTime),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, p := range o.Packages {
		m.Packages = append(m.Packages, ticketPackageModel{
			ID:               p.ID,
			OccurrenceID:     p.OccurrenceID,
			Title:            p.Title,
			Price:            p.Price,
			TicketsTotal:     p.TicketsTotal,
			TicketsRemaining: p.TicketsRemaining,
			CreatedAt:        p.CreatedAt,
			UpdatedAt:        p.UpdatedAt,
		})
	}
	return m
}

func toDomainEvent(m eventModel) *domain.Event {
	var desc string
	if m.Description != nil {
		desc = *m.Description
	}
	e := &domain.Event{
		ID:          m.ID,
		VenueID:     m.VenueID,
		Title:       m.Title,
		Description: desc,
		Featured:    m.Featured,
		Status:      domain.EventStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, om := range m.Occurrences {
		e.Occurrences = append(e.Occurrences, *toDomainOccurrence(om))
	}
	return e
}

// Create persists an event with its occurrences and packages in one go.
func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	var desc *string
	if e.Description != "" {
		v := e.Description
		desc = &v
	}
	m := eventModel{
		VenueID:     e.VenueID,
		Title:       e.Title,
		Description: desc,
		Featured:    e.Featured,
		Status:      string(e.Status),
	}
	for i := range e.Occurrences {
		m.Occurrences = append(m.Occurrences, toOccurrenceModel(&e.Occurrences[i]))
	}

	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*e = *toDomainEvent(m)
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	var m eventModel
	tx := r.db.WithContext(ctx).
		Preload("Occurrences").
		Preload("Occurrences.Packages").
		First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainEvent(m), nil
}

func (r *EventRepository) GetOccurrence(ctx context.Context, id int64) (*domain.EventOccurrence, error) {
	var m occurrenceModel
	tx := r.db.WithContext(ctx).Preload("Packages").First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainOccurrence(m), nil
}

func (r *EventRepository) ListActive(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	var models []eventModel
	tx := r.db.WithContext(ctx).
		Preload("Occurrences").
		Preload("Occurrences.Packages").
		Where("status = ?", string(domain.EventActive)).
		Order("featured DESC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Event, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainEvent(m))
	}
	return out, nil
}

// AddOccurrences appends generated occurrences (with their packages) to an
// existing event.
func (r *EventRepository) AddOccurrences(ctx context.Context, eventID int64, occs []domain.EventOccurrence) error {
	models := make([]occurrenceModel, 0, len(occs))
	for i := range occs {
		occs[i].EventID = eventID
		m := toOccurrenceModel(&occs[i])
		models = append(models, m)
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

func (r *EventRepository) UpdateOccurrenceTimes(ctx context.Context, id int64, startDate, endDate time.Time, startTime, endTime domain.TimeOfDay, now time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&occurrenceModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"start_date": startDate,
			"end_date":   endDate,
			"start_time": int(startTime),
			"end_time":   int(endTime),
			"updated_at": now,
		})
	return tx.Error
}

// SetStatus soft-disables or re-enables an event. Events referenced by
// bookings are never deleted.
func (r *EventRepository) SetStatus(ctx context.Context, id int64, status domain.EventStatus, now time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&eventModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": now})
	return tx.Error
}
