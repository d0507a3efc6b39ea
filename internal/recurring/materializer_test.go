package recurring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
)

func TestMaterializeStatusAndTimes(t *testing.T) {
	ctx := context.Background()
	store := &memBookings{}
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	m := NewMaterializer(newCatalog(), store, loc, nil)

	d := weeklyDefinition()
	d.CustomerID = testCustomer
	d.ProviderID = testProvider
	d.ServiceID = testService
	d.SpecialInstructions = "side door"

	b, err := m.Materialize(ctx, d, day("2025-01-13"), "10:30")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, time.Date(2025, 1, 13, 9, 30, 0, 0, time.UTC), b.StartTime.UTC())
	assert.Equal(t, time.Hour, b.EndTime.Sub(b.StartTime))
	assert.Equal(t, "50", b.Price.String())
	assert.Equal(t, "side door", b.Notes)
	require.NotNil(t, b.RecurringBookingID)
	assert.Equal(t, d.ID, *b.RecurringBookingID)

	d.AutoConfirm = true
	b, err = m.Materialize(ctx, d, day("2025-01-20"), "10:30")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)

	_, err = m.Materialize(ctx, d, day("2025-01-27"), "nope")
	assert.Error(t, err)
}

func TestMaterializeZeroPriceWhenServiceMissing(t *testing.T) {
	store := &memBookings{}
	m := NewMaterializer(newCatalog(), store, time.UTC, nil)

	d := weeklyDefinition()
	d.ServiceID = "gone"

	b, err := m.Materialize(context.Background(), d, day("2025-01-13"), "10:30")
	require.NoError(t, err)
	assert.True(t, b.Price.IsZero())
}

func TestMaterializeCatalogFailurePropagates(t *testing.T) {
	cat := &mockCatalog{}
	cat.On("GetByID", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	store := &memBookings{}
	m := NewMaterializer(cat, store, time.UTC, nil)

	_, err := m.Materialize(context.Background(), weeklyDefinition(), day("2025-01-13"), "10:30")
	assert.Error(t, err)
	assert.Empty(t, store.items)
}

func TestMaterializeRetriesNumberCollisions(t *testing.T) {
	store := &memBookings{items: []booking.Booking{{BookingNumber: "BK-TAKEN"}}}
	m := NewMaterializer(newCatalog(), store, time.UTC, nil)

	numbers := []string{"BK-TAKEN", "BK-TAKEN", "BK-FREE"}
	calls := 0
	m.newNumber = func(time.Time) string {
		n := numbers[calls]
		calls++
		return n
	}

	d := weeklyDefinition()
	d.ServiceID = testService
	b, err := m.Materialize(context.Background(), d, day("2025-01-13"), "10:30")
	require.NoError(t, err)
	assert.Equal(t, "BK-FREE", b.BookingNumber)
	assert.Equal(t, 3, calls)

	m.newNumber = func(time.Time) string { return "BK-TAKEN" }
	_, err = m.Materialize(context.Background(), d, day("2025-01-20"), "10:30")
	assert.ErrorIs(t, err, booking.ErrDuplicateNumber)
}

func TestMaterializeCancelled(t *testing.T) {
	store := &memBookings{}
	m := NewMaterializer(newCatalog(), store, time.UTC, nil)

	d := weeklyDefinition()
	d.ServiceID = testService
	d.AutoConfirm = true

	b, err := m.MaterializeCancelled(context.Background(), d, day("2025-01-13"), "")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, b.Status)
	assert.Equal(t, "cancelled occurrence", b.Notes)

	again, err := m.MaterializeCancelled(context.Background(), d, day("2025-01-13"), "")
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID)
	assert.Len(t, store.items, 1)
}

func TestNewBookingNumber(t *testing.T) {
	now := time.Date(2025, 1, 6, 23, 0, 0, 0, time.UTC)
	a, b := NewBookingNumber(now), NewBookingNumber(now)
	assert.Regexp(t, `^BK-20250106-[0-9A-F]{8}$`, a)
	assert.NotEqual(t, a, b)
}
