package recurring

import (
	"time"
)

// The functions in this file are the state machine of a definition. They are
// pure: each takes a definition by value and returns the next state, leaving
// persistence and booking creation to the caller.

type PauseRequest struct {
	Reason     string
	PauseUntil *time.Time
}

type ResumeRequest struct {
	ResumeDate     *time.Time
	AdjustSchedule bool
}

// Pause moves an ACTIVE definition to PAUSED. The occurrence cursor is kept.
func Pause(d Definition, req PauseRequest, now time.Time) (Definition, error) {
	if d.Status != StatusActive {
		return d, ErrInvalidTransition
	}
	d.Status = StatusPaused
	d.PauseReason = req.Reason
	d.PausedAt = &now
	d.PausedUntil = nil
	if req.PauseUntil != nil {
		until := DateOf(*req.PauseUntil)
		d.PausedUntil = &until
	}
	return d, nil
}

// Resume moves a PAUSED definition back to ACTIVE. An explicit resume date
// replaces the cursor; otherwise AdjustSchedule advances the cursor by one
// step, and without either the cursor is left as it was.
func Resume(d Definition, req ResumeRequest) (Definition, error) {
	if d.Status != StatusPaused {
		return d, ErrInvalidTransition
	}
	d.Status = StatusActive
	d.PauseReason = ""
	d.PausedAt = nil
	d.PausedUntil = nil

	switch {
	case req.ResumeDate != nil:
		d.NextOccurrenceDate = DateOf(*req.ResumeDate)
	case req.AdjustSchedule:
		d.NextOccurrenceDate = Next(&d, d.NextOccurrenceDate)
	}
	return d, nil
}

// Cancel moves any non-terminal definition to CANCELLED. The second return
// value is false when the definition was already terminal and nothing changed.
func Cancel(d Definition, now time.Time) (Definition, bool) {
	if d.Status.Terminal() {
		return d, false
	}
	d.Status = StatusCancelled
	d.CancelledAt = &now
	d.PausedUntil = nil
	return d, true
}

// Outcome labels what one materialization attempt did.
type Outcome string

const (
	OutcomeMaterialized Outcome = "materialized"
	OutcomeCompleted    Outcome = "completed"
	OutcomeExhausted    Outcome = "exhausted"
	OutcomeNotDue       Outcome = "not_due"
	OutcomeInactive     Outcome = "inactive"
)

// Plan is the result of planning the next materialization: the new
// definition state plus the bookings to create.
type Plan struct {
	Definition Definition
	Outcome    Outcome
	Book       *Occurrence
	// Cancelled holds occurrence dates that get a cancelled booking record.
	Cancelled []time.Time
}

// CompleteIfFinished marks an ACTIVE definition COMPLETED when its occurrence
// limit is reached or its end date lies before today.
func CompleteIfFinished(d Definition, today time.Time) (Definition, bool) {
	if d.Status != StatusActive {
		return d, false
	}
	if d.MaxOccurrences != nil && d.OccurrenceCount >= *d.MaxOccurrences {
		d.Status = StatusCompleted
		return d, true
	}
	if d.EndDate != nil && DateOf(*d.EndDate).Before(DateOf(today)) {
		d.Status = StatusCompleted
		return d, true
	}
	return d, false
}

// PlanNext applies a resolution to the definition. Only a booked occurrence
// counts towards the occurrence limit; skipped and cancelled dates are passed over.
func PlanNext(d Definition, res Resolution, now time.Time) Plan {
	p := Plan{Cancelled: res.Cancelled}

	if !res.Materialize {
		d.NextOccurrenceDate = res.Candidate
		d.Status = StatusCompleted
		p.Definition = d
		p.Outcome = OutcomeExhausted
		return p
	}

	p.Book = &Occurrence{Date: res.Date, StartTime: res.StartTime, Rescheduled: res.Rescheduled}
	d.OccurrenceCount++
	d.LastMaterializedAt = &now
	d.NextOccurrenceDate = Next(&d, res.Candidate)

	switch {
	case d.MaxOccurrences != nil && d.OccurrenceCount >= *d.MaxOccurrences:
		d.Status = StatusCompleted
	case d.EndDate != nil && d.NextOccurrenceDate.After(DateOf(*d.EndDate)):
		d.Status = StatusCompleted
	}

	p.Definition = d
	p.Outcome = OutcomeMaterialized
	return p
}
