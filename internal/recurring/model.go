package recurring

import (
	"net/http"
	"time"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/apperror"
)

var (
	ErrNotFound              = apperror.New(http.StatusNotFound, "recurring booking not found")
	ErrServiceNotFound       = apperror.New(http.StatusNotFound, "service not found")
	ErrProviderMismatch      = apperror.New(http.StatusNotFound, "provider does not offer this service")
	ErrInvalidTransition     = apperror.New(http.StatusConflict, "operation not allowed in current status")
	ErrVersionConflict       = apperror.New(http.StatusConflict, "recurring booking was modified concurrently")
	ErrExceptionExists       = apperror.New(http.StatusConflict, "an exception already exists for this date")
	ErrExceptionNotFound     = apperror.New(http.StatusNotFound, "exception not found")
	ErrInvalidFrequency      = apperror.New(http.StatusBadRequest, "invalid frequency")
	ErrInvalidInterval       = apperror.New(http.StatusBadRequest, "recurrence interval must be at least 1")
	ErrInvalidStartTime      = apperror.New(http.StatusBadRequest, "start time must be HH:MM")
	ErrInvalidDuration       = apperror.New(http.StatusBadRequest, "duration must be positive")
	ErrInvalidDaysOfWeek     = apperror.New(http.StatusBadRequest, "days of week are only valid for weekly patterns")
	ErrInvalidEndDate        = apperror.New(http.StatusBadRequest, "end date must not be before start date")
	ErrInvalidMaxOccurrences = apperror.New(http.StatusBadRequest, "max occurrences must be at least the current occurrence count and positive")
	ErrInvalidExceptionType  = apperror.New(http.StatusBadRequest, "invalid exception type")
	ErrRescheduleDate        = apperror.New(http.StatusBadRequest, "reschedule requires a new date")
	ErrExceptionDatePassed   = apperror.New(http.StatusBadRequest, "exception date is before the next scheduled occurrence")
	ErrSkipChainTooLong      = apperror.New(http.StatusUnprocessableEntity, "too many consecutive skipped occurrences")
)

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

func (f Frequency) weekly() bool {
	return f == FrequencyWeekly || f == FrequencyBiweekly
}

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type ExceptionType string

const (
	ExceptionSkip       ExceptionType = "skip"
	ExceptionReschedule ExceptionType = "reschedule"
	ExceptionCancel     ExceptionType = "cancel"
)

func (t ExceptionType) Valid() bool {
	return t == ExceptionSkip || t == ExceptionReschedule || t == ExceptionCancel
}

type NotificationPreferences struct {
	Email                  bool  `json:"email"`
	SMS                    bool  `json:"sms"`
	ReminderOffsetsMinutes []int `json:"reminder_offsets_minutes"`
}

// Definition is a recurring booking rule together with its occurrence cursor.
// Dates (StartDate, NextOccurrenceDate, EndDate, SkipDates, PausedUntil) are
// civil dates stored as UTC midnight; StartTime is a wall clock "HH:MM".
type Definition struct {
	ID         string
	CustomerID string
	ProviderID string
	ServiceID  string

	Frequency          Frequency
	RecurrenceInterval int
	StartDate          time.Time
	StartTime          string
	DurationMinutes    int
	DaysOfWeek         []time.Weekday

	NextOccurrenceDate time.Time
	EndDate            *time.Time
	MaxOccurrences     *int
	OccurrenceCount    int
	LastMaterializedAt *time.Time

	AutoConfirm             bool
	SpecialInstructions     string
	NotificationPreferences NotificationPreferences
	SkipDates               []time.Time

	Status      Status
	PauseReason string
	PausedAt    *time.Time
	PausedUntil *time.Time
	CancelledAt *time.Time

	// Version is compared-and-swapped on every update.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Definition) isSkipDate(date time.Time) bool {
	for _, s := range d.SkipDates {
		if sameDate(s, date) {
			return true
		}
	}
	return false
}

// Exception overrides a single occurrence of a definition.
type Exception struct {
	ID                 string
	RecurringBookingID string
	ExceptionDate      time.Time
	Type               ExceptionType
	NewDate            *time.Time
	NewTime            string
	Reason             string
	CreatedAt          time.Time
}

type Filter struct {
	CustomerID string
	Status     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

type ExceptionFilter struct {
	Type string
	From *time.Time
	To   *time.Time
}

// Occurrence is a projected (not yet materialized) booking slot.
type Occurrence struct {
	Date        time.Time
	StartTime   string
	Rescheduled bool
}
