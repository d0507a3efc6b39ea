package http

import (
	"time"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	RecurringBookingID string     `form:"recurring_booking_id" binding:"omitempty,uuid"`
	Status             string     `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
	StartTimeFrom      *time.Time `form:"start_time_from" time_format:"2006-01-02T15:04:05Z07:00"`
	StartTimeTo        *time.Time `form:"start_time_to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy             string     `form:"sort_by" binding:"omitempty,oneof=start_time created_at status"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.StartTimeFrom != nil && r.StartTimeTo != nil {
		if r.StartTimeFrom.After(*r.StartTimeTo) {
			return booking.ErrInvalidTimeRange
		}
	}
	return nil
}

type BookingResponse struct {
	ID                 string    `json:"id"`
	BookingNumber      string    `json:"booking_number"`
	CustomerID         string    `json:"customer_id"`
	ProviderID         string    `json:"provider_id"`
	ServiceID          string    `json:"service_id"`
	RecurringBookingID *string   `json:"recurring_booking_id"`
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	Price              string    `json:"price"`
	Status             string    `json:"status"`
	Notes              string    `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		BookingNumber:      b.BookingNumber,
		CustomerID:         b.CustomerID,
		ProviderID:         b.ProviderID,
		ServiceID:          b.ServiceID,
		RecurringBookingID: b.RecurringBookingID,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Price:              b.Price.StringFixed(2),
		Status:             string(b.Status),
		Notes:              b.Notes,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}
