package repository

import (
	"context"
	"time"

	"venuebook/internal/domain"

	"gorm.io/gorm"
)

type VenueRepository struct {
	db *gorm.DB
}

func NewVenueRepository(db *gorm.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

type venueModel struct {
	ID          int64      `gorm:"column:id;primaryKey"`
	OwnerID     int64      `gorm:"column:owner_id"`
	Name        string     `gorm:"column:name"`
	Description *string    `gorm:"column:description"`
	Address     string     `gorm:"column:address"`
	City        string     `gorm:"column:city"`
	Featured    bool       `gorm:"column:featured"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
}

func (venueModel) TableName() string { return "venues" }

func toDomainVenue(m venueModel) *domain.Venue {
	var desc string
	if m.Description != nil {
		desc = *m.Description
	}
	return &domain.Venue{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: desc,
		Address:     m.Address,
		City:        m.City,
		Featured:    m.Featured,
		Status:      domain.VenueStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		DeletedAt:   m.DeletedAt,
	}
}

func (r *VenueRepository) Create(ctx context.Context, v *domain.Venue) error {
	var desc *string
	if v.Description != "" {
		d := v.Description
		desc = &d
	}
	m := venueModel{
		OwnerID:     v.OwnerID,
		Name:        v.Name,
		Description: desc,
		Address:     v.Address,
		City:        v.City,
		Featured:    v.Featured,
		Status:      string(v.Status),
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*v = *toDomainVenue(m)
	return nil
}

func (r *VenueRepository) GetByID(ctx context.Context, id int64) (*domain.Venue, error) {
	var m venueModel
	tx := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainVenue(m), nil
}

func (r *VenueRepository) ListActive(ctx context.Context, limit, offset int) ([]domain.Venue, error) {
	var models []venueModel
	tx := r.db.WithContext(ctx).
		Where("status = ? AND deleted_at IS NULL", string(domain.VenueActive)).
		Order("featured DESC, name ASC").
		Limit(limit).Offset(offset).
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Venue, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainVenue(m))
	}
	return out, nil
}
