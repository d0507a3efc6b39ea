package recurring

import (
	"context"
	"errors"
	"time"
)

// maxSkipChain bounds how many consecutive skipped or cancelled occurrences a
// single resolution walks past before giving up.
const maxSkipChain = 366

// ExceptionLookup finds the exception registered for one occurrence date.
// It returns ErrExceptionNotFound when the date has none.
type ExceptionLookup interface {
	GetExceptionByDate(ctx context.Context, recurringBookingID string, date time.Time) (*Exception, error)
}

// Resolution is the outcome of applying exceptions to a candidate occurrence.
type Resolution struct {
	// Candidate is the rule occurrence that the resolution settled on. The
	// cursor advances from here.
	Candidate time.Time
	// Date and StartTime are where the booking is placed; they differ from
	// Candidate and the rule's start time only for a reschedule.
	Date      time.Time
	StartTime string
	// Materialize is false when every remaining occurrence up to the end date
	// was skipped or cancelled.
	Materialize bool
	Rescheduled bool
	Skipped     []time.Time
	Cancelled   []time.Time
}

type ExceptionResolver struct {
	lookup ExceptionLookup
}

func NewExceptionResolver(lookup ExceptionLookup) *ExceptionResolver {
	return &ExceptionResolver{lookup: lookup}
}

// Resolve walks forward from candidate, honouring skip dates and skip/cancel
// exceptions in date order, until it reaches an occurrence to book.
func (r *ExceptionResolver) Resolve(ctx context.Context, d *Definition, candidate time.Time) (Resolution, error) {
	var res Resolution
	candidate = DateOf(candidate)

	for i := 0; i < maxSkipChain; i++ {
		res.Candidate = candidate

		if d.EndDate != nil && candidate.After(DateOf(*d.EndDate)) {
			return res, nil
		}

		if d.isSkipDate(candidate) {
			res.Skipped = append(res.Skipped, candidate)
			candidate = Next(d, candidate)
			continue
		}

		ex, err := r.lookup.GetExceptionByDate(ctx, d.ID, candidate)
		if err != nil {
			if errors.Is(err, ErrExceptionNotFound) {
				res.Date = candidate
				res.StartTime = d.StartTime
				res.Materialize = true
				return res, nil
			}
			return res, err
		}

		switch ex.Type {
		case ExceptionSkip:
			res.Skipped = append(res.Skipped, candidate)
			candidate = Next(d, candidate)
		case ExceptionCancel:
			res.Cancelled = append(res.Cancelled, candidate)
			candidate = Next(d, candidate)
		case ExceptionReschedule:
			res.Date = candidate
			if ex.NewDate != nil {
				res.Date = DateOf(*ex.NewDate)
			}
			res.StartTime = d.StartTime
			if ex.NewTime != "" {
				res.StartTime = ex.NewTime
			}
			res.Materialize = true
			res.Rescheduled = true
			return res, nil
		default:
			return res, ErrInvalidExceptionType
		}
	}

	return res, ErrSkipChainTooLong
}
