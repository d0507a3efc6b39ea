package recurring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceFixedSteps(t *testing.T) {
	anchor := day("2025-01-06")

	cases := []struct {
		freq     Frequency
		interval int
		want     string
	}{
		{FrequencyDaily, 1, "2025-01-07"},
		{FrequencyWeekly, 1, "2025-01-13"},
		{FrequencyBiweekly, 1, "2025-01-20"},
		{FrequencyMonthly, 1, "2025-02-06"},
		{FrequencyQuarterly, 1, "2025-04-06"},
		{FrequencyDaily, 3, "2025-01-09"},
		{FrequencyWeekly, 2, "2025-01-20"},
		{FrequencyBiweekly, 2, "2025-02-03"},
		{FrequencyMonthly, 2, "2025-03-06"},
		{FrequencyQuarterly, 2, "2025-07-06"},
		{FrequencyWeekly, 0, "2025-01-13"},
	}

	for _, tc := range cases {
		got := Advance(anchor, tc.freq, tc.interval)
		assert.Equal(t, tc.want, FormatDate(got), "%s x%d", tc.freq, tc.interval)
	}
}

func TestAdvanceClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, "2025-02-28", FormatDate(Advance(day("2025-01-31"), FrequencyMonthly, 1)))
	assert.Equal(t, "2024-02-29", FormatDate(Advance(day("2024-01-31"), FrequencyMonthly, 1)))
	assert.Equal(t, "2025-04-30", FormatDate(Advance(day("2025-03-31"), FrequencyMonthly, 1)))
	assert.Equal(t, "2026-02-28", FormatDate(Advance(day("2025-11-30"), FrequencyQuarterly, 1)))
	assert.Equal(t, "2026-01-31", FormatDate(Advance(day("2025-12-31"), FrequencyMonthly, 1)))
}

func TestNextMonthlyKeepsStartDay(t *testing.T) {
	monthly := &Definition{Frequency: FrequencyMonthly, RecurrenceInterval: 1, StartDate: day("2025-01-31")}

	var got []string
	cursor := monthly.StartDate
	for i := 0; i < 4; i++ {
		cursor = Next(monthly, cursor)
		got = append(got, FormatDate(cursor))
	}
	assert.Equal(t, []string{"2025-02-28", "2025-03-31", "2025-04-30", "2025-05-31"}, got)

	quarterly := &Definition{Frequency: FrequencyQuarterly, RecurrenceInterval: 1, StartDate: day("2025-11-30")}
	first := Next(quarterly, quarterly.StartDate)
	assert.Equal(t, "2026-02-28", FormatDate(first))
	assert.Equal(t, "2026-05-30", FormatDate(Next(quarterly, first)))

	// A cursor moved off the pattern by a resume date still lands on the start day.
	assert.Equal(t, "2025-06-30", FormatDate(Next(monthly, day("2025-05-10"))))
}

func TestAdvancePanicsOnUnknownFrequency(t *testing.T) {
	assert.Panics(t, func() {
		Advance(day("2025-01-06"), Frequency("hourly"), 1)
	})
}

func TestNextWithDaysOfWeek(t *testing.T) {
	weekly := &Definition{
		Frequency:          FrequencyWeekly,
		RecurrenceInterval: 1,
		StartDate:          day("2025-01-06"),
		DaysOfWeek:         []time.Weekday{time.Monday, time.Thursday},
	}
	assert.Equal(t, "2025-01-09", FormatDate(Next(weekly, day("2025-01-06"))))
	assert.Equal(t, "2025-01-13", FormatDate(Next(weekly, day("2025-01-09"))))

	biweekly := *weekly
	biweekly.Frequency = FrequencyBiweekly
	assert.Equal(t, "2025-01-09", FormatDate(Next(&biweekly, day("2025-01-06"))))
	assert.Equal(t, "2025-01-20", FormatDate(Next(&biweekly, day("2025-01-09"))))

	// Weekdays are ignored for non-weekly frequencies.
	monthly := *weekly
	monthly.Frequency = FrequencyMonthly
	assert.Equal(t, "2025-02-06", FormatDate(Next(&monthly, day("2025-01-06"))))
}

func TestFirst(t *testing.T) {
	d := &Definition{
		Frequency:          FrequencyWeekly,
		RecurrenceInterval: 1,
		StartDate:          day("2025-01-07"),
	}
	assert.Equal(t, "2025-01-07", FormatDate(First(d)))

	d.DaysOfWeek = []time.Weekday{time.Monday, time.Thursday}
	assert.Equal(t, "2025-01-09", FormatDate(First(d)))

	d.DaysOfWeek = []time.Weekday{time.Tuesday}
	assert.Equal(t, "2025-01-07", FormatDate(First(d)))
}
