package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"venuebook/internal/database"
	"venuebook/internal/domain"
	"venuebook/internal/modules/availability"
	"venuebook/internal/modules/booking"
	"venuebook/internal/modules/event"
	"venuebook/internal/modules/inventory"
	"venuebook/internal/modules/reaper"
	"venuebook/internal/notification"
	"venuebook/internal/pkg/clock"
	"venuebook/internal/pkg/lock"
	"venuebook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Monday noon, inside the seeded weekday windows.
var e2eNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type suite struct {
	db           *gorm.DB
	venues       *repository.VenueRepository
	events       *repository.EventRepository
	packages     *repository.TicketPackageRepository
	windows      *repository.AvailabilityWindowRepository
	bookings     *repository.BookingRepository
	availability *availability.Service
	inventory    *inventory.Service
	booking      *booking.Service
	event        *event.Service
}

func newSuite(t *testing.T, clk clock.Clock) *suite {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	s := &suite{
		db:       db,
		venues:   repository.NewVenueRepository(db),
		events:   repository.NewEventRepository(db),
		packages: repository.NewTicketPackageRepository(db),
		windows:  repository.NewAvailabilityWindowRepository(db),
		bookings: repository.NewBookingRepository(db),
	}
	s.availability = availability.NewService(s.windows, s.venues, clk)
	s.inventory = inventory.NewService(s.packages, lock.NewKeyedMutex(), clk)
	s.booking = booking.NewService(
		s.bookings, s.events, s.windows, s.inventory,
		nil, notification.NewLogDispatcher(), clk, "USD", 10*time.Second,
	)
	s.event = event.NewService(s.events, s.availability, clk)
	return s
}

func (s *suite) seedVenue(t *testing.T, withWindows bool) *domain.Venue {
	t.Helper()
	v := &domain.Venue{OwnerID: 1, Name: "Riverside Hall", City: "Almaty", Status: domain.VenueActive}
	require.NoError(t, s.venues.Create(context.Background(), v))

	if withWindows {
		weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
		require.NoError(t, s.windows.Replace(context.Background(), domain.WindowOwnerVenue, v.ID, []domain.AvailabilityWindow{
			{Days: weekdays, From: mustTime(t, "09:00"), To: mustTime(t, "17:00")},
		}, e2eNow))
	}
	return v
}

func (s *suite) seedEvent(t *testing.T, venueID int64, ticketsTotal int) (*domain.Event, *domain.TicketPackage) {
	t.Helper()
	date := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	e := &domain.Event{
		VenueID: venueID,
		Title:   "Jazz Fridays",
		Status:  domain.EventActive,
		Occurrences: []domain.EventOccurrence{{
			StartDate: date,
			EndDate:   date,
			StartTime: mustTime(t, "19:00"),
			EndTime:   mustTime(t, "23:00"),
			Packages: []domain.TicketPackage{
				{Title: "Standard", Price: 25, TicketsTotal: ticketsTotal, TicketsRemaining: ticketsTotal},
			},
		}},
	}
	require.NoError(t, s.events.Create(context.Background(), e))
	return e, &e.Occurrences[0].Packages[0]
}

func mustTime(t *testing.T, v string) domain.TimeOfDay {
	t.Helper()
	parsed, err := domain.ParseTimeOfDay(v)
	require.NoError(t, err)
	return parsed
}

func TestEventBookingEndToEnd(t *testing.T) {
	s := newSuite(t, clock.NewFixed(e2eNow))
	ctx := context.Background()

	v := s.seedVenue(t, true)
	e, pkg := s.seedEvent(t, v.ID, 2)

	b, err := s.booking.CreateEventBooking(ctx, booking.CreateEventBookingRequest{
		UserID: 11, OccurrenceID: e.Occurrences[0].ID, PackageID: pkg.ID, Quantity: 2,
	})
	require.NoError(t, err)
	require.Len(t, b.Tickets, 2)

	stored, err := s.packages.GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TicketsRemaining)

	// Pool is empty now.
	_, err = s.booking.CreateEventBooking(ctx, booking.CreateEventBookingRequest{
		UserID: 12, OccurrenceID: e.Occurrences[0].ID, PackageID: pkg.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, inventory.ErrOutOfStock)

	require.NoError(t, s.booking.ConfirmPayment(ctx, b.ID, 1))
	paid, err := s.booking.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPaid, paid.Status)

	// Redeem one ticket; the same code cannot be used twice.
	code := paid.Tickets[0].Code
	redeemed, err := s.booking.RedeemTicket(ctx, code, 77)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketRedeemed, redeemed.Status)

	_, err = s.booking.RedeemTicket(ctx, code, 77)
	assert.ErrorIs(t, err, booking.ErrAlreadyRedeemed)
}

func TestCancelReleasesInventoryOnce(t *testing.T) {
	s := newSuite(t, clock.NewFixed(e2eNow))
	ctx := context.Background()

	v := s.seedVenue(t, true)
	e, pkg := s.seedEvent(t, v.ID, 5)

	b, err := s.booking.CreateEventBooking(ctx, booking.CreateEventBookingRequest{
		UserID: 11, OccurrenceID: e.Occurrences[0].ID, PackageID: pkg.ID, Quantity: 3,
	})
	require.NoError(t, err)

	changed, err := s.booking.RejectOrCancel(ctx, b.ID, domain.BookingCancelled, "changed my mind", 11)
	require.NoError(t, err)
	assert.True(t, changed)

	stored, err := s.packages.GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.TicketsRemaining)

	// Second cancel is a no-op and must not release again.
	changed, err = s.booking.RejectOrCancel(ctx, b.ID, domain.BookingCancelled, "again", 11)
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err = s.packages.GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.TicketsRemaining)
}

func TestReaperSweepsExactlyAtTimeout(t *testing.T) {
	s := newSuite(t, clock.NewFixed(e2eNow))
	ctx := context.Background()

	v := s.seedVenue(t, true)
	e, pkg := s.seedEvent(t, v.ID, 4)

	b, err := s.booking.CreateEventBooking(ctx, booking.CreateEventBookingRequest{
		UserID: 11, OccurrenceID: e.Occurrences[0].ID, PackageID: pkg.ID, Quantity: 1,
	})
	require.NoError(t, err)

	timeout := 15 * time.Minute
	cfg := reaper.Config{SweepInterval: time.Minute, ReservationTimeout: timeout, BatchSize: 10}

	// One second before the timeout the booking survives.
	early := reaper.New(s.bookings, s.booking, clock.NewFixed(e2eNow.Add(timeout-time.Second)), cfg)
	rejected, err := early.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, rejected)

	// Exactly at the timeout it is swept and its inventory comes back.
	due := reaper.New(s.bookings, s.booking, clock.NewFixed(e2eNow.Add(timeout)), cfg)
	rejected, err = due.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rejected)

	swept, err := s.booking.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingRejected, swept.Status)

	stored, err := s.packages.GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.TicketsRemaining)
}

func TestReaperLeavesPaidBookingsAlone(t *testing.T) {
	s := newSuite(t, clock.NewFixed(e2eNow))
	ctx := context.Background()

	v := s.seedVenue(t, true)
	e, pkg := s.seedEvent(t, v.ID, 4)

	b, err := s.booking.CreateEventBooking(ctx, booking.CreateEventBookingRequest{
		UserID: 11, OccurrenceID: e.Occurrences[0].ID, PackageID: pkg.ID, Quantity: 2,
	})
	require.NoError(t, err)
	require.NoError(t, s.booking.ConfirmPayment(ctx, b.ID, 1))

	rp := reaper.New(s.bookings, s.booking, clock.NewFixed(e2eNow.Add(time.Hour)), reaper.Config{
		SweepInterval: time.Minute, ReservationTimeout: 15 * time.Minute, BatchSize: 10,
	})
	rejected, err := rp.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, rejected)

	stored, err := s.packages.GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TicketsRemaining)
}

func TestVenueBookingRespectsWindows(t *testing.T) {
	s := newSuite(t, clock.NewFixed(e2eNow))
	ctx := context.Background()

	open := s.seedVenue(t, true)
	closed := s.seedVenue(t, false)

	b, err := s.booking.CreateVenueBooking(ctx, booking.CreateVenueBookingRequest{
		UserID: 11, VenueID: open.ID, BookingDate: e2eNow.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, b.Status)

	_, err = s.booking.CreateVenueBooking(ctx, booking.CreateVenueBookingRequest{
		UserID: 11, VenueID: closed.ID, BookingDate: e2eNow.AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, booking.ErrWindowClosed)
}

func TestOpenNowEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newSuite(t, clock.NewFixed(e2eNow))
	v := s.seedVenue(t, true)

	r := gin.New()
	availability.NewHandler(s.availability).RegisterPublicRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues/"+strconv.FormatInt(v.ID, 10)+"/open-now", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Open bool `json:"open"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Data.Open)
}

func TestRepeatGenerationPersistsClones(t *testing.T) {
	s := newSuite(t, clock.NewFixed(e2eNow))
	ctx := context.Background()
	v := s.seedVenue(t, true)

	until := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	created, err := s.event.CreateEvent(ctx, event.CreateEventRequest{
		VenueID: v.ID,
		Title:   "Weekly Standup Comedy",
		Occurrences: []event.OccurrenceInput{{
			StartDate: time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
			StartTime: "20:00",
			EndTime:   "22:00",
			Packages:  []event.PackageInput{{Title: "Entry", Price: 10, TicketsTotal: 50}},
		}},
		Repeat: event.RepeatInput{Mode: "weekly", Until: &until},
	})
	require.NoError(t, err)

	stored, err := s.events.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Occurrences, 3)
	for _, o := range stored.Occurrences {
		require.Len(t, o.Packages, 1)
		assert.Equal(t, 50, o.Packages[0].TicketsRemaining)
	}

	// Prolong the series past its original until date.
	extendUntil := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)
	_, err = s.event.ExtendOccurrences(ctx, created.ID, event.ExtendEventRequest{
		Occurrences: []event.OccurrenceInput{{
			StartDate: time.Date(2026, 3, 27, 0, 0, 0, 0, time.UTC),
			StartTime: "20:00",
			EndTime:   "22:00",
			Packages:  []event.PackageInput{{Title: "Entry", Price: 10, TicketsTotal: 50}},
		}},
		Repeat: event.RepeatInput{Mode: "weekly", Until: &extendUntil},
	})
	require.NoError(t, err)

	stored, err = s.events.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Occurrences, 5)
	for _, o := range stored.Occurrences {
		require.Len(t, o.Packages, 1)
		assert.Equal(t, 50, o.Packages[0].TicketsRemaining)
	}
}

