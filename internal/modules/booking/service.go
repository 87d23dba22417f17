package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/modules/inventory"
	"venuebook/internal/pkg/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// notification event names dispatched after durable transitions.
const (
	EventBookingCreated  = "booking.created"
	EventBookingPaid     = "booking.paid"
	EventBookingRejected = "booking.rejected"
	EventBookingApproved = "booking.approved"
)

// Service drives the booking/ticket state machine. Inventory side effects go
// through the reservation service; transitions are conditional persisted
// updates, so concurrent actors (payment confirmation, the reaper, admins)
// cannot double-apply them.
type Service struct {
	bookings     BookingRepository
	occurrences  OccurrenceRepository
	windows      WindowRepository
	reservations ReservationService
	gateway      PaymentGateway
	notifs       NotificationDispatcher
	clock        clock.Clock

	currency       string
	gatewayTimeout time.Duration
}

func NewService(
	bookings BookingRepository,
	occurrences OccurrenceRepository,
	windows WindowRepository,
	reservations ReservationService,
	gateway PaymentGateway,
	notifs NotificationDispatcher,
	clk clock.Clock,
	currency string,
	gatewayTimeout time.Duration,
) *Service {
	return &Service{
		bookings:       bookings,
		occurrences:    occurrences,
		windows:        windows,
		reservations:   reservations,
		gateway:        gateway,
		notifs:         notifs,
		clock:          clk,
		currency:       currency,
		gatewayTimeout: gatewayTimeout,
	}
}

// CreateEventBooking reserves inventory and persists a pending event booking
// with one ticket per reserved unit. Reservation failure surfaces before any
// booking row exists; a failed persist releases the reservation again.
func (s *Service) CreateEventBooking(ctx context.Context, req CreateEventBookingRequest) (*domain.Booking, error) {
	if req.Quantity <= 0 || req.UserID == 0 {
		return nil, ErrValidation
	}

	occ, err := s.occurrences.GetOccurrence(ctx, req.OccurrenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var pkg *domain.TicketPackage
	for i := range occ.Packages {
		if occ.Packages[i].ID == req.PackageID {
			pkg = &occ.Packages[i]
			break
		}
	}
	if pkg == nil {
		return nil, ErrNotFound
	}

	now := s.clock.Now()
	if occ.EndInstant().Before(now) {
		return nil, ErrWindowClosed
	}
	windows, err := s.windows.GetForOwner(ctx, domain.WindowOwnerOccurrence, occ.ID)
	if err != nil {
		return nil, err
	}
	// Occurrences without explicit booking windows are bookable until they end.
	if len(windows) > 0 && !domain.AnyOpenAt(windows, now) {
		return nil, ErrWindowClosed
	}

	res, err := s.reservations.Reserve(ctx, pkg.ID, req.Quantity)
	if err != nil {
		return nil, err
	}

	occID := occ.ID
	pkgID := pkg.ID
	b := &domain.Booking{
		Kind:         domain.KindEvent,
		UserID:       req.UserID,
		OccurrenceID: &occID,
		PackageID:    &pkgID,
		Quantity:     req.Quantity,
		TotalPrice:   pkg.Price * float64(req.Quantity),
		Status:       domain.BookingPending,
		ModifiedBy:   req.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i := 0; i < req.Quantity; i++ {
		b.Tickets = append(b.Tickets, domain.Ticket{
			Code:      uuid.NewString(),
			Status:    domain.TicketPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		if relErr := s.reservations.Release(ctx, res.PackageID, res.Quantity); relErr != nil {
			log.Printf("level=error msg=release after failed persist booking_pkg=%d qty=%d err=%v", res.PackageID, res.Quantity, relErr)
		}
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.Notify(ctx, b.UserID, EventBookingCreated, map[string]any{"booking_id": b.ID})
	}
	return b, nil
}

// CreateVenueBooking persists a pending venue booking. The venue's windows
// must be currently open; venue bookings hold no ticket inventory.
func (s *Service) CreateVenueBooking(ctx context.Context, req CreateVenueBookingRequest) (*domain.Booking, error) {
	if req.UserID == 0 || req.VenueID == 0 {
		return nil, ErrValidation
	}

	windows, err := s.windows.GetForOwner(ctx, domain.WindowOwnerVenue, req.VenueID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !domain.AnyOpenAt(windows, now) {
		return nil, ErrWindowClosed
	}

	venueID := req.VenueID
	bookingDate := req.BookingDate
	b := &domain.Booking{
		Kind:        domain.KindVenue,
		UserID:      req.UserID,
		VenueID:     &venueID,
		BookingDate: &bookingDate,
		Quantity:    1,
		Status:      domain.BookingPending,
		ModifiedBy:  req.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.Notify(ctx, b.UserID, EventBookingCreated, map[string]any{"booking_id": b.ID})
	}
	return b, nil
}

// InitiatePayment starts a gateway payment for a pending event booking. The
// gateway call carries a hard timeout; on any failure the booking is rejected
// and its inventory released before the error returns, so no hold is orphaned.
func (s *Service) InitiatePayment(ctx context.Context, bookingID int64) (*PaymentInitResponse, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Kind != domain.KindEvent || b.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	orderRef := fmt.Sprintf("booking-%d", b.ID)
	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	orderID, redirectURL, err := s.gateway.Initiate(gwCtx, b.TotalPrice, s.currency, orderRef)
	if err != nil {
		if _, rejErr := s.RejectOrCancel(ctx, b.ID, domain.BookingRejected, "payment initiation failed", 0); rejErr != nil {
			log.Printf("level=error msg=reject after gateway failure booking_id=%d err=%v", b.ID, rejErr)
		}
		sentinel := ErrGateway
		if errors.Is(err, context.DeadlineExceeded) {
			sentinel = ErrGatewayTimeout
		}
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}

	return &PaymentInitResponse{BookingID: b.ID, OrderID: orderID, RedirectURL: redirectURL}, nil
}

// ConfirmPayment moves a pending or on-hold event booking to paid. Inventory
// was already reserved at creation, so there is no count change. Confirming an
// already paid booking is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, bookingID, actorID int64) error {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Kind != domain.KindEvent {
		return ErrInvalidTransition
	}

	changed, err := s.bookings.UpdateStatusIf(ctx, bookingID, domain.NonTerminalStatuses, domain.BookingPaid, "", actorID, s.clock.Now())
	if err != nil {
		return err
	}
	if !changed {
		if b.Status == domain.BookingPaid {
			return nil
		}
		return ErrInvalidTransition
	}

	if s.notifs != nil {
		_ = s.notifs.Notify(ctx, b.UserID, EventBookingPaid, map[string]any{"booking_id": b.ID})
	}
	return nil
}

// HoldForReview parks a pending event booking while payment is verified
// manually.
func (s *Service) HoldForReview(ctx context.Context, bookingID, actorID int64) error {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(b.Kind, b.Status, domain.BookingOnHold) {
		return ErrInvalidTransition
	}

	changed, err := s.bookings.UpdateStatusIf(ctx, bookingID, []domain.BookingStatus{domain.BookingPending}, domain.BookingOnHold, "", actorID, s.clock.Now())
	if err != nil {
		return err
	}
	if !changed {
		return ErrInvalidTransition
	}
	return nil
}

// Approve confirms a pending venue booking.
func (s *Service) Approve(ctx context.Context, bookingID, actorID int64) error {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(b.Kind, b.Status, domain.BookingApproved) {
		return ErrInvalidTransition
	}

	changed, err := s.bookings.UpdateStatusIf(ctx, bookingID, []domain.BookingStatus{domain.BookingPending}, domain.BookingApproved, "", actorID, s.clock.Now())
	if err != nil {
		return err
	}
	if !changed {
		return ErrInvalidTransition
	}

	if s.notifs != nil {
		_ = s.notifs.Notify(ctx, b.UserID, EventBookingApproved, map[string]any{"booking_id": b.ID})
	}
	return nil
}

// RejectOrCancel moves any non-terminal booking to rejected or cancelled and
// releases held inventory. The conditional update makes the whole operation a
// no-op when the booking already reached a terminal state, which is exactly
// what keeps a racing payment confirmation or a second rejection from
// double-releasing. Returns whether a transition actually happened.
func (s *Service) RejectOrCancel(ctx context.Context, bookingID int64, to domain.BookingStatus, reason string, actorID int64) (bool, error) {
	if to != domain.BookingRejected && to != domain.BookingCancelled {
		return false, ErrValidation
	}

	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if b.Status.Terminal() {
		return false, nil
	}

	changed, err := s.bookings.UpdateStatusIf(ctx, bookingID, domain.NonTerminalStatuses, to, reason, actorID, s.clock.Now())
	if err != nil {
		return false, err
	}
	if !changed {
		// Lost the race against another transition; nothing to undo.
		return false, nil
	}

	if b.Kind == domain.KindEvent && b.PackageID != nil {
		if err := s.reservations.Release(ctx, *b.PackageID, b.Quantity); err != nil {
			return true, fmt.Errorf("release inventory for booking %d: %w", bookingID, err)
		}
	}

	if s.notifs != nil {
		_ = s.notifs.ClearBookingReminders(ctx, b.ID)
		_ = s.notifs.Notify(ctx, b.UserID, EventBookingRejected, map[string]any{
			"booking_id": b.ID,
			"reason":     reason,
		})
	}
	return true, nil
}

// RedeemTicket consumes a paid ticket by its secret code, recording the
// redeemer. Each ticket can be redeemed at most once.
func (s *Service) RedeemTicket(ctx context.Context, code string, redeemerID int64) (*domain.Ticket, error) {
	t, err := s.bookings.GetTicketByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	b, err := s.getBooking(ctx, t.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingPaid {
		return nil, ErrNotPaid
	}
	if t.Status != domain.TicketPending {
		return nil, ErrAlreadyRedeemed
	}

	changed, err := s.bookings.RedeemTicketIf(ctx, t.ID, redeemerID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrAlreadyRedeemed
	}
	return s.bookings.GetTicketByID(ctx, t.ID)
}

// RejectTicket voids a single pending ticket, recording the reason and the
// acting admin. The owning booking keeps its status.
func (s *Service) RejectTicket(ctx context.Context, ticketID, adminID int64, reason string) error {
	if reason == "" {
		return ErrValidation
	}

	changed, err := s.bookings.RejectTicketIf(ctx, ticketID, adminID, reason, s.clock.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !changed {
		return ErrAlreadyRedeemed
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.getBooking(ctx, id)
}

func (s *Service) GetMyBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.bookings.GetByUser(ctx, userID, limit, offset)
}

func (s *Service) getBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}
