package recurring

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
)

const calendarProductID = "-//wiwihood//recurring-bookings//EN"

// BuildCalendar renders the materialized bookings of d as an iCalendar feed.
func BuildCalendar(d *Definition, title string, bookings []*booking.Booking, now time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(title)

	for _, b := range bookings {
		event := cal.AddEvent(fmt.Sprintf("%s@%s", b.BookingNumber, d.ID))
		event.SetCreatedTime(b.CreatedAt)
		event.SetDtStampTime(now)
		event.SetModifiedAt(b.UpdatedAt)
		event.SetStartAt(b.StartTime)
		event.SetEndAt(b.EndTime)
		event.SetSummary(title)
		if b.Notes != "" {
			event.SetDescription(b.Notes)
		}
		event.SetStatus(eventStatus(b.Status))
	}

	return []byte(cal.Serialize())
}

func eventStatus(s booking.Status) ics.ObjectStatus {
	switch s {
	case booking.StatusConfirmed, booking.StatusCompleted:
		return ics.ObjectStatusConfirmed
	case booking.StatusCancelled:
		return ics.ObjectStatusCancelled
	default:
		return ics.ObjectStatusTentative
	}
}
