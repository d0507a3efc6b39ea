package recurring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
)

func statBooking(start string, status booking.Status, price string) *booking.Booking {
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		panic(err)
	}
	return &booking.Booking{
		StartTime: t,
		EndTime:   t.Add(time.Hour),
		Status:    status,
		Price:     decimal.RequireFromString(price),
	}
}

func statsFixture() []*booking.Booking {
	return []*booking.Booking{
		statBooking("2025-01-06T10:30:00Z", booking.StatusCompleted, "40"),
		statBooking("2025-01-13T10:30:00Z", booking.StatusCompleted, "40"),
		statBooking("2025-01-20T10:30:00Z", booking.StatusCancelled, "40"),
		statBooking("2025-02-03T10:30:00Z", booking.StatusConfirmed, "40"),
		statBooking("2025-02-10T10:30:00Z", booking.StatusPending, "40"),
	}
}

func TestAggregatePartitions(t *testing.T) {
	now := time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	d := weeklyDefinition()

	stats := Aggregate(d, statsFixture(), nil, StatsOptions{}, now, time.UTC)
	assert.Equal(t, 5, stats.TotalBookings)
	assert.Equal(t, 2, stats.CompletedBookings)
	assert.Equal(t, 1, stats.CancelledBookings)
	assert.Equal(t, 2, stats.UpcomingBookings)
	assert.Equal(t, stats.TotalBookings, stats.CompletedBookings+stats.UpcomingBookings+stats.CancelledBookings)
	assert.True(t, stats.IsActive)
	require.NotNil(t, stats.NextBookingDate)
	assert.Equal(t, "2025-02-03", FormatDate(*stats.NextBookingDate))

	assert.Nil(t, stats.TotalRevenue)
	assert.Nil(t, stats.ProjectedRevenue)
	assert.Nil(t, stats.PeriodStats)
}

func TestAggregateRevenue(t *testing.T) {
	now := time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	d := weeklyDefinition()
	base := decimal.RequireFromString("50")

	stats := Aggregate(d, statsFixture(), &base, StatsOptions{IncludeRevenue: true, IncludeProjection: true}, now, time.UTC)
	require.NotNil(t, stats.TotalRevenue)
	assert.Equal(t, "100.00", stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, "50.00", stats.AverageBookingValue.StringFixed(2))
	assert.Equal(t, "100.00", stats.ProjectedRevenue.StringFixed(2))

	// Without a catalog price the recorded booking prices are used.
	stats = Aggregate(d, statsFixture(), nil, StatsOptions{IncludeRevenue: true}, now, time.UTC)
	assert.Equal(t, "80.00", stats.TotalRevenue.StringFixed(2))

	stats = Aggregate(d, nil, &base, StatsOptions{IncludeRevenue: true, IncludeProjection: true}, now, time.UTC)
	assert.True(t, stats.AverageBookingValue.IsZero())
	assert.True(t, stats.ProjectedRevenue.IsZero())
}

func TestAggregateGrouping(t *testing.T) {
	now := time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	d := weeklyDefinition()
	base := decimal.RequireFromString("50")

	stats := Aggregate(d, statsFixture(), &base, StatsOptions{GroupBy: GroupByMonth}, now, time.UTC)
	require.Len(t, stats.PeriodStats, 2)
	jan, feb := stats.PeriodStats[0], stats.PeriodStats[1]
	assert.Equal(t, "2025-01", jan.Period)
	assert.Equal(t, 3, jan.Total)
	assert.Equal(t, 2, jan.Completed)
	assert.Equal(t, 1, jan.Cancelled)
	assert.Equal(t, "100.00", jan.Revenue.StringFixed(2))
	assert.Equal(t, "2025-02", feb.Period)
	assert.Equal(t, 2, feb.Total)
	assert.True(t, feb.Revenue.IsZero())

	stats = Aggregate(d, statsFixture(), &base, StatsOptions{GroupBy: GroupByWeek}, now, time.UTC)
	periods := make([]string, len(stats.PeriodStats))
	for i, p := range stats.PeriodStats {
		periods[i] = p.Period
	}
	assert.Equal(t, []string{"2025-W02", "2025-W03", "2025-W04", "2025-W06", "2025-W07"}, periods)

	stats = Aggregate(d, statsFixture(), &base, StatsOptions{GroupBy: GroupByDay}, now, time.UTC)
	assert.Equal(t, "2025-01-06", stats.PeriodStats[0].Period)
}

func TestAggregateRangeAndCursorFallback(t *testing.T) {
	now := time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	d := weeklyDefinition()
	d.NextOccurrenceDate = day("2025-02-17")

	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	stats := Aggregate(d, statsFixture(), nil, StatsOptions{From: &from, To: &to}, now, time.UTC)
	assert.Equal(t, 2, stats.TotalBookings)
	assert.Zero(t, stats.UpcomingBookings)
	require.NotNil(t, stats.NextBookingDate)
	assert.Equal(t, "2025-02-17 10:30", stats.NextBookingDate.Format("2006-01-02 15:04"))

	d.Status = StatusCompleted
	stats = Aggregate(d, nil, nil, StatsOptions{}, now, time.UTC)
	assert.False(t, stats.IsActive)
	assert.Nil(t, stats.NextBookingDate)
}
