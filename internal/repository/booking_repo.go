package repository

import (
	"context"
	"time"

	"venuebook/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	Kind         string     `gorm:"column:kind"`
	UserID       int64      `gorm:"column:user_id"`
	VenueID      *int64     `gorm:"column:venue_id"`
	OccurrenceID *int64     `gorm:"column:occurrence_id"`
	PackageID    *int64     `gorm:"column:package_id"`
	BookingDate  *time.Time `gorm:"column:booking_date"`
	Quantity     int        `gorm:"column:quantity"`
	TotalPrice   float64    `gorm:"column:total_price"`
	Status       string     `gorm:"column:status"`
	StatusReason *string    `gorm:"column:status_reason"`
	ModifiedBy   int64      `gorm:"column:modified_by"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`

	Tickets []ticketModel `gorm:"foreignKey:BookingID"`
}

func (bookingModel) TableName() string { return "bookings" }

type ticketModel struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	BookingID    int64      `gorm:"column:booking_id"`
	Code         string     `gorm:"column:code;uniqueIndex"`
	Status       string     `gorm:"column:status"`
	RedeemedBy   *int64     `gorm:"column:redeemed_by"`
	RedeemedAt   *time.Time `gorm:"column:redeemed_at"`
	RejectedBy   *int64     `gorm:"column:rejected_by"`
	RejectReason *string    `gorm:"column:reject_reason"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (ticketModel) TableName() string { return "tickets" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var reason string
	if m.StatusReason != nil {
		reason = *m.StatusReason
	}

	b := &domain.Booking{
		ID:           m.ID,
		Kind:         domain.BookingKind(m.Kind),
		UserID:       m.UserID,
		VenueID:      m.VenueID,
		OccurrenceID: m.OccurrenceID,
		PackageID:    m.PackageID,
		BookingDate:  m.BookingDate,
		Quantity:     m.Quantity,
		TotalPrice:   m.TotalPrice,
		Status:       domain.BookingStatus(m.Status),
		StatusReason: reason,
		ModifiedBy:   m.ModifiedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for _, tm := range m.Tickets {
		b.Tickets = append(b.Tickets, *toDomainTicket(tm))
	}
	return b
}

func toDomainTicket(m ticketModel) *domain.Ticket {
	var reason string
	if m.RejectReason != nil {
		reason = *m.RejectReason
	}
	return &domain.Ticket{
		ID:           m.ID,
		BookingID:    m.BookingID,
		Code:         m.Code,
		Status:       domain.TicketStatus(m.Status),
		RedeemedBy:   m.RedeemedBy,
		RedeemedAt:   m.RedeemedAt,
		RejectedBy:   m.RejectedBy,
		RejectReason: reason,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var reason *string
	if b.StatusReason != "" {
		v := b.StatusReason
		reason = &v
	}

	m := bookingModel{
		ID:           b.ID,
		Kind:         string(b.Kind),
		UserID:       b.UserID,
		VenueID:      b.VenueID,
		OccurrenceID: b.OccurrenceID,
		PackageID:    b.PackageID,
		BookingDate:  b.BookingDate,
		Quantity:     b.Quantity,
		TotalPrice:   b.TotalPrice,
		Status:       string(b.Status),
		StatusReason: reason,
		ModifiedBy:   b.ModifiedBy,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	for _, t := range b.Tickets {
		m.Tickets = append(m.Tickets, ticketModel{
			ID:        t.ID,
			BookingID: t.BookingID,
			Code:      t.Code,
			Status:    string(t.Status),
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		})
	}
	return m
}

// Create persists a booking together with its tickets in one transaction.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).Preload("Tickets").First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	var models []bookingModel
	tx := r.db.WithContext(ctx).
		Preload("Tickets").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// UpdateStatusIf moves a booking to a new status only if it is currently in
// one of the given states, stamping the reason, actor and modification time.
// Returns false when no row matched, i.e. the booking already left those
// states; that is what makes concurrent transitions race-safe and idempotent.
func (r *BookingRepository) UpdateStatusIf(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus, reason string, actorID int64, now time.Time) (bool, error) {
	updates := map[string]any{
		"status":      string(to),
		"modified_by": actorID,
		"updated_at":  now,
	}
	if reason != "" {
		updates["status_reason"] = reason
	}

	tx := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// FindStale returns bookings still in a non-terminal state whose creation time
// is at or before the cutoff (inclusive boundary).
func (r *BookingRepository) FindStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.Booking, error) {
	var models []bookingModel
	tx := r.db.WithContext(ctx).
		Where("status IN ? AND created_at <= ?", statusStrings(domain.NonTerminalStatuses), cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

func (r *BookingRepository) GetTicketByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	var m ticketModel
	tx := r.db.WithContext(ctx).Where("code = ?", code).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainTicket(m), nil
}

func (r *BookingRepository) GetTicketByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	var m ticketModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainTicket(m), nil
}

// RedeemTicketIf marks a pending ticket redeemed, recording the redeemer and
// the redemption instant. Returns false if the ticket was not pending.
func (r *BookingRepository) RedeemTicketIf(ctx context.Context, ticketID, redeemerID int64, now time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&ticketModel{}).
		Where("id = ? AND status = ?", ticketID, string(domain.TicketPending)).
		Updates(map[string]any{
			"status":      string(domain.TicketRedeemed),
			"redeemed_by": redeemerID,
			"redeemed_at": now,
			"updated_at":  now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// RejectTicketIf marks a pending ticket rejected with a reason and the acting
// admin. Returns false if the ticket was not pending.
func (r *BookingRepository) RejectTicketIf(ctx context.Context, ticketID, adminID int64, reason string, now time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&ticketModel{}).
		Where("id = ? AND status = ?", ticketID, string(domain.TicketPending)).
		Updates(map[string]any{
			"status":        string(domain.TicketRejected),
			"rejected_by":   adminID,
			"reject_reason": reason,
			"updated_at":    now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func statusStrings(in []domain.BookingStatus) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}
