package repository

import (
	"context"
	"time"

	"venuebook/internal/domain"

	"gorm.io/gorm"
)

type TicketPackageRepository struct {
	db *gorm.DB
}

func NewTicketPackageRepository(db *gorm.DB) *TicketPackageRepository {
	return &TicketPackageRepository{db: db}
}

type ticketPackageModel struct {
	ID               int64     `gorm:"column:id;primaryKey"`
	OccurrenceID     int64     `gorm:"column:occurrence_id"`
	Title            string    `gorm:"column:title"`
	Price            float64   `gorm:"column:price"`
	TicketsTotal     int       `gorm:"column:tickets_total"`
	TicketsRemaining int       `gorm:"column:tickets_remaining"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (ticketPackageModel) TableName() string { return "ticket_packages" }

func toDomainPackage(m ticketPackageModel) *domain.TicketPackage {
	return &domain.TicketPackage{
		ID:               m.ID,
		OccurrenceID:     m.OccurrenceID,
		Title:            m.Title,
		Price:            m.Price,
		TicketsTotal:     m.TicketsTotal,
		TicketsRemaining: m.TicketsRemaining,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (r *TicketPackageRepository) GetByID(ctx context.Context, id int64) (*domain.TicketPackage, error) {
	var m ticketPackageModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainPackage(m), nil
}

// DecrementIfAvailable performs the atomic conditional decrement that is the
// oversell correctness boundary: the remaining count drops by qty only if the
// row still holds at least qty units. Returns false when no row matched.
func (r *TicketPackageRepository) DecrementIfAvailable(ctx context.Context, id int64, qty int, now time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&ticketPackageModel{}).
		Where("id = ? AND tickets_remaining >= ?", id, qty).
		Updates(map[string]any{
			"tickets_remaining": gorm.Expr("tickets_remaining - ?", qty),
			"updated_at":        now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// IncrementSaturating returns qty units to the pool. The remaining count never
// exceeds tickets_total, so a replayed release is a no-op past the cap.
func (r *TicketPackageRepository) IncrementSaturating(ctx context.Context, id int64, qty int, now time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&ticketPackageModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tickets_remaining": gorm.Expr(
				"CASE WHEN tickets_remaining + ? > tickets_total THEN tickets_total ELSE tickets_remaining + ? END",
				qty, qty,
			),
			"updated_at": now,
		})
	return tx.Error
}
