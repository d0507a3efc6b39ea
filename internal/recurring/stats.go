package recurring

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
)

type Grouping string

const (
	GroupByDay   Grouping = "day"
	GroupByWeek  Grouping = "week"
	GroupByMonth Grouping = "month"
)

func (g Grouping) Valid() bool {
	return g == "" || g == GroupByDay || g == GroupByWeek || g == GroupByMonth
}

func (g Grouping) key(t time.Time) string {
	switch g {
	case GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GroupByMonth:
		return t.Format("2006-01")
	default:
		return t.Format(DateLayout)
	}
}

type StatsOptions struct {
	IncludeRevenue    bool
	IncludeProjection bool
	GroupBy           Grouping
	// From and To restrict the bookings in scope by start time, inclusive.
	From *time.Time
	To   *time.Time
}

type PeriodStats struct {
	Period    string
	Total     int
	Completed int
	Cancelled int
	Revenue   decimal.Decimal
}

type Stats struct {
	TotalBookings     int
	CompletedBookings int
	UpcomingBookings  int
	CancelledBookings int
	NextBookingDate   *time.Time
	IsActive          bool

	TotalRevenue        *decimal.Decimal
	AverageBookingValue *decimal.Decimal
	ProjectedRevenue    *decimal.Decimal
	PeriodStats         []PeriodStats
}

// Aggregate derives the report for d from its materialized bookings.
// unitPrice is the service base price that completed bookings are valued at;
// when nil each booking's recorded price is used instead. Bucket keys are
// computed in loc.
func Aggregate(d *Definition, bookings []*booking.Booking, unitPrice *decimal.Decimal, opts StatsOptions, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.UTC
	}
	stats := Stats{IsActive: d.Status == StatusActive}

	value := func(b *booking.Booking) decimal.Decimal {
		if unitPrice != nil {
			return *unitPrice
		}
		return b.Price
	}

	revenue := decimal.Zero
	periods := make(map[string]*PeriodStats)

	for _, b := range bookings {
		if opts.From != nil && b.StartTime.Before(*opts.From) {
			continue
		}
		if opts.To != nil && b.StartTime.After(*opts.To) {
			continue
		}

		stats.TotalBookings++

		var p *PeriodStats
		if opts.GroupBy != "" {
			key := opts.GroupBy.key(b.StartTime.In(loc))
			p = periods[key]
			if p == nil {
				p = &PeriodStats{Period: key, Revenue: decimal.Zero}
				periods[key] = p
			}
			p.Total++
		}

		switch {
		case b.Status == booking.StatusCompleted:
			stats.CompletedBookings++
			revenue = revenue.Add(value(b))
			if p != nil {
				p.Completed++
				p.Revenue = p.Revenue.Add(value(b))
			}
		case b.Status == booking.StatusCancelled:
			stats.CancelledBookings++
			if p != nil {
				p.Cancelled++
			}
		case b.StartTime.After(now):
			stats.UpcomingBookings++
			if stats.NextBookingDate == nil || b.StartTime.Before(*stats.NextBookingDate) {
				start := b.StartTime
				stats.NextBookingDate = &start
			}
		}
	}

	if stats.NextBookingDate == nil && stats.IsActive {
		next, err := combine(d.NextOccurrenceDate, d.StartTime, loc)
		if err == nil {
			stats.NextBookingDate = &next
		}
	}

	average := decimal.Zero
	if stats.CompletedBookings > 0 {
		average = revenue.Div(decimal.NewFromInt(int64(stats.CompletedBookings))).Round(2)
	}

	if opts.IncludeRevenue {
		stats.TotalRevenue = &revenue
		stats.AverageBookingValue = &average
	}
	if opts.IncludeProjection {
		projected := average.Mul(decimal.NewFromInt(int64(stats.UpcomingBookings)))
		stats.ProjectedRevenue = &projected
	}

	if opts.GroupBy != "" {
		stats.PeriodStats = make([]PeriodStats, 0, len(periods))
		for _, p := range periods {
			stats.PeriodStats = append(stats.PeriodStats, *p)
		}
		sort.Slice(stats.PeriodStats, func(i, j int) bool {
			return stats.PeriodStats[i].Period < stats.PeriodStats[j].Period
		})
	}

	return stats
}
