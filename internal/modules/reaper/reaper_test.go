package reaper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingFinder struct {
	mock.Mock
}

func (m *MockBookingFinder) FindStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.Booking, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) RejectOrCancel(ctx context.Context, bookingID int64, to domain.BookingStatus, reason string, actorID int64) (bool, error) {
	args := m.Called(ctx, bookingID, to, reason, actorID)
	return args.Bool(0), args.Error(1)
}

var sweepNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func TestSweep_CutoffIsNowMinusTimeout(t *testing.T) {
	finder := new(MockBookingFinder)
	lc := new(MockLifecycle)
	cfg := Config{ReservationTimeout: 15 * time.Minute, BatchSize: 200, SweepInterval: time.Minute}

	// The boundary itself is enforced by the repository's <= comparison; the
	// reaper's contract is passing exactly now-timeout as the cutoff.
	finder.On("FindStale", mock.Anything, sweepNow.Add(-15*time.Minute), 200).Return([]domain.Booking{}, nil)

	r := New(finder, lc, clock.NewFixed(sweepNow), cfg)
	_, err := r.Sweep(context.Background())

	require.NoError(t, err)
	finder.AssertExpectations(t)
}

func TestSweep_RejectsStaleBookings(t *testing.T) {
	finder := new(MockBookingFinder)
	lc := new(MockLifecycle)

	stale := []domain.Booking{
		{ID: 1, Status: domain.BookingPending},
		{ID: 2, Status: domain.BookingOnHold},
	}
	finder.On("FindStale", mock.Anything, mock.Anything, mock.Anything).Return(stale, nil)
	lc.On("RejectOrCancel", mock.Anything, int64(1), domain.BookingRejected, "stale reservation", int64(0)).Return(true, nil)
	lc.On("RejectOrCancel", mock.Anything, int64(2), domain.BookingRejected, "stale reservation", int64(0)).Return(true, nil)

	r := New(finder, lc, clock.NewFixed(sweepNow), DefaultConfig())
	rejected, err := r.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, rejected)

	stats := r.Stats()
	assert.Equal(t, int64(1), stats.Sweeps)
	assert.Equal(t, int64(2), stats.Swept)
	assert.Equal(t, int64(2), stats.Rejected)
	assert.Equal(t, int64(0), stats.Failed)
	assert.Equal(t, sweepNow, stats.LastSweep)
}

func TestSweep_RaceLoserIsNotCounted(t *testing.T) {
	finder := new(MockBookingFinder)
	lc := new(MockLifecycle)

	// Booking 1 was paid between the query and the conditional update: the
	// lifecycle reports no change and nothing is double-applied.
	finder.On("FindStale", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Booking{
		{ID: 1, Status: domain.BookingPending},
		{ID: 2, Status: domain.BookingPending},
	}, nil)
	lc.On("RejectOrCancel", mock.Anything, int64(1), domain.BookingRejected, "stale reservation", int64(0)).Return(false, nil)
	lc.On("RejectOrCancel", mock.Anything, int64(2), domain.BookingRejected, "stale reservation", int64(0)).Return(true, nil)

	r := New(finder, lc, clock.NewFixed(sweepNow), DefaultConfig())
	rejected, err := r.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, rejected)
}

func TestSweep_PerBookingFailureDoesNotAbort(t *testing.T) {
	finder := new(MockBookingFinder)
	lc := new(MockLifecycle)

	finder.On("FindStale", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Booking{
		{ID: 1}, {ID: 2}, {ID: 3},
	}, nil)
	lc.On("RejectOrCancel", mock.Anything, int64(1), mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("db glitch"))
	lc.On("RejectOrCancel", mock.Anything, int64(2), mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	lc.On("RejectOrCancel", mock.Anything, int64(3), mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	r := New(finder, lc, clock.NewFixed(sweepNow), DefaultConfig())
	rejected, err := r.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, rejected)
	lc.AssertNumberOfCalls(t, "RejectOrCancel", 3)

	stats := r.Stats()
	assert.Equal(t, int64(1), stats.Failed)
}

func TestSweep_FinderErrorSurfaces(t *testing.T) {
	finder := new(MockBookingFinder)
	lc := new(MockLifecycle)
	finder.On("FindStale", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	r := New(finder, lc, clock.NewFixed(sweepNow), DefaultConfig())
	_, err := r.Sweep(context.Background())

	assert.Error(t, err)
	lc.AssertNotCalled(t, "RejectOrCancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduleAndStop(t *testing.T) {
	finder := new(MockBookingFinder)
	lc := new(MockLifecycle)

	var mu sync.Mutex
	calls := 0
	finder.On("FindStale", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		mu.Lock()
		calls++
		mu.Unlock()
	}).Return([]domain.Booking{}, nil)

	cfg := Config{SweepInterval: 5 * time.Millisecond, ReservationTimeout: time.Minute, BatchSize: 10}
	r := New(finder, lc, clock.NewFixed(sweepNow), cfg)

	r.Schedule(context.Background())
	time.Sleep(30 * time.Millisecond)
	r.Stop()

	mu.Lock()
	after := calls
	mu.Unlock()
	assert.Greater(t, after, 0)

	// No sweeps after Stop returns.
	time.Sleep(15 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, after, calls)
	mu.Unlock()
}
