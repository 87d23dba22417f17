package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"venuebook/internal/domain"

	"gorm.io/gorm"
)

type AvailabilityWindowRepository struct {
	db *gorm.DB
}

func NewAvailabilityWindowRepository(db *gorm.DB) *AvailabilityWindowRepository {
	return &AvailabilityWindowRepository{db: db}
}

type availabilityWindowModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	OwnerType string    `gorm:"column:owner_type;index:idx_window_owner"`
	OwnerID   int64     `gorm:"column:owner_id;index:idx_window_owner"`
	Days      string    `gorm:"column:days"` // csv of weekday keys, e.g. "monday,wednesday"
	OpenTime  string    `gorm:"column:open_time"`
	CloseTime string    `gorm:"column:close_time"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (availabilityWindowModel) TableName() string { return "availability_windows" }

var weekdayKeys = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func weekdayKey(w time.Weekday) string {
	switch w {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

func toDomainWindow(m availabilityWindowModel) (domain.AvailabilityWindow, error) {
	var w domain.AvailabilityWindow

	for _, part := range strings.Split(m.Days, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" {
			continue
		}
		day, ok := weekdayKeys[key]
		if !ok {
			return w, fmt.Errorf("unknown weekday %q in window %d", part, m.ID)
		}
		w.Days = append(w.Days, day)
	}

	var err error
	if w.From, err = domain.ParseTimeOfDay(m.OpenTime); err != nil {
		return w, fmt.Errorf("window %d: %w", m.ID, err)
	}
	if w.To, err = domain.ParseTimeOfDay(m.CloseTime); err != nil {
		return w, fmt.Errorf("window %d: %w", m.ID, err)
	}
	return w, w.Validate()
}

// GetForOwner loads all windows of one owning entity, parsed into domain form.
func (r *AvailabilityWindowRepository) GetForOwner(ctx context.Context, ownerType domain.WindowOwnerType, ownerID int64) ([]domain.AvailabilityWindow, error) {
	var models []availabilityWindowModel
	tx := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", string(ownerType), ownerID).
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.AvailabilityWindow, 0, len(models))
	for _, m := range models {
		w, err := toDomainWindow(m)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Replace swaps the full window set of an owner in one transaction, used by
// admin edits of a venue's or offer's schedule.
func (r *AvailabilityWindowRepository) Replace(ctx context.Context, ownerType domain.WindowOwnerType, ownerID int64, windows []domain.AvailabilityWindow, now time.Time) error {
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_type = ? AND owner_id = ?", string(ownerType), ownerID).
			Delete(&availabilityWindowModel{}).Error; err != nil {
			return err
		}
		for _, w := range windows {
			keys := make([]string, 0, len(w.Days))
			for _, d := range w.Days {
				keys = append(keys, weekdayKey(d))
			}
			m := availabilityWindowModel{
				OwnerType: string(ownerType),
				OwnerID:   ownerID,
				Days:      strings.Join(keys, ","),
				OpenTime:  w.From.String(),
				CloseTime: w.To.String(),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
