package recurring

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Advance returns the occurrence date that follows current for the given
// frequency. interval multiplies the base step and values below 1 count as 1.
// Monthly steps keep the day of month, clamped to the length of the target month.
//
// An unknown frequency panics: frequencies are validated when a definition is
// accepted, so reaching here with one means stored data is corrupt.
func Advance(current time.Time, freq Frequency, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	switch freq {
	case FrequencyDaily:
		return current.AddDate(0, 0, interval)
	case FrequencyWeekly:
		return current.AddDate(0, 0, 7*interval)
	case FrequencyBiweekly:
		return current.AddDate(0, 0, 14*interval)
	case FrequencyMonthly:
		return addMonths(current, interval)
	case FrequencyQuarterly:
		return addMonths(current, 3*interval)
	}
	panic(fmt.Sprintf("recurring: unsupported frequency %q", freq))
}

func addMonths(t time.Time, n int) time.Time {
	return addMonthsOnDay(t, n, t.Day())
}

// addMonthsOnDay moves t forward n months and lands on dayOfMonth, clamped
// to the length of the target month.
func addMonthsOnDay(t time.Time, n, dayOfMonth int) time.Time {
	y, m, _ := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysInMonth(first); dayOfMonth > last {
		dayOfMonth = last
	}
	return first.AddDate(0, 0, dayOfMonth-1)
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Next returns the occurrence after current for a definition. Weekly patterns
// restricted to specific weekdays are expanded with an RRULE anchored at the
// definition's start date so that multi-week intervals stay aligned. Monthly
// and quarterly steps land on the start date's day of month, so a series
// clamped in a short month returns to its day afterwards.
func Next(d *Definition, current time.Time) time.Time {
	if len(d.DaysOfWeek) > 0 && d.Frequency.weekly() {
		if next, ok := weekdayRule(d).after(current, false); ok {
			return next
		}
	}
	interval := max(d.RecurrenceInterval, 1)
	switch d.Frequency {
	case FrequencyMonthly:
		return addMonthsOnDay(current, interval, d.StartDate.Day())
	case FrequencyQuarterly:
		return addMonthsOnDay(current, 3*interval, d.StartDate.Day())
	}
	return Advance(current, d.Frequency, d.RecurrenceInterval)
}

// First returns the first occurrence on or after the definition's start date.
func First(d *Definition) time.Time {
	start := DateOf(d.StartDate)
	if len(d.DaysOfWeek) > 0 && d.Frequency.weekly() {
		if first, ok := weekdayRule(d).after(start, true); ok {
			return first
		}
	}
	return start
}

type weekdayPattern struct {
	rule *rrule.RRule
}

func weekdayRule(d *Definition) weekdayPattern {
	weeks := d.RecurrenceInterval
	if weeks < 1 {
		weeks = 1
	}
	if d.Frequency == FrequencyBiweekly {
		weeks *= 2
	}

	days := make([]rrule.Weekday, 0, len(d.DaysOfWeek))
	for _, wd := range d.DaysOfWeek {
		days = append(days, toRRuleWeekday(wd))
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  weeks,
		Wkst:      rrule.MO,
		Byweekday: days,
		Dtstart:   DateOf(d.StartDate),
	})
	if err != nil {
		return weekdayPattern{}
	}
	return weekdayPattern{rule: r}
}

func (p weekdayPattern) after(t time.Time, inclusive bool) (time.Time, bool) {
	if p.rule == nil {
		return time.Time{}, false
	}
	next := p.rule.After(DateOf(t), inclusive)
	if next.IsZero() {
		return time.Time{}, false
	}
	return DateOf(next), true
}

func toRRuleWeekday(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
