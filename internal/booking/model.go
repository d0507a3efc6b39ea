package booking

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrInvalidTimeRange = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrInvalidStatus    = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrDuplicateNumber  = apperror.New(http.StatusConflict, "booking number already exists")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID            string
	BookingNumber string
	CustomerID    string
	ProviderID    string
	ServiceID     string
	// RecurringBookingID links a materialized occurrence back to its definition.
	RecurringBookingID *string
	StartTime          time.Time
	EndTime            time.Time
	Price              decimal.Decimal
	Status             Status
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Filter struct {
	CustomerID         string
	RecurringBookingID string
	Status             string
	ExcludeStatuses    []Status
	StartTime          *time.Time // Filter bookings starting at or after this time
	EndTime            *time.Time // Filter bookings starting at or before this time
	Page               int
	PageSize           int
	SortBy             string
	SortOrder          string
}
