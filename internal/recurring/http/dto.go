package http

import (
	"time"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/request"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/recurring"
)

type NotificationPreferencesBody struct {
	Email                  bool  `json:"email"`
	SMS                    bool  `json:"sms"`
	ReminderOffsetsMinutes []int `json:"reminder_offsets_minutes" binding:"omitempty,dive,min=0"`
}

func (b *NotificationPreferencesBody) toModel() recurring.NotificationPreferences {
	if b == nil {
		return recurring.NotificationPreferences{}
	}
	return recurring.NotificationPreferences{
		Email:                  b.Email,
		SMS:                    b.SMS,
		ReminderOffsetsMinutes: b.ReminderOffsetsMinutes,
	}
}

type CreateRecurringBookingRequest struct {
	ProviderID              string                       `json:"provider_id" binding:"required,uuid"`
	ServiceID               string                       `json:"service_id" binding:"required,uuid"`
	Frequency               string                       `json:"frequency" binding:"required,oneof=daily weekly biweekly monthly quarterly"`
	RecurrenceInterval      int                          `json:"recurrence_interval" binding:"omitempty,min=1,max=52"`
	StartDate               string                       `json:"start_date" binding:"required,datetime=2006-01-02"`
	StartTime               string                       `json:"start_time" binding:"required,datetime=15:04"`
	DurationMinutes         int                          `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
	DaysOfWeek              []int                        `json:"days_of_week" binding:"omitempty,dive,min=0,max=6"`
	EndDate                 *string                      `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	MaxOccurrences          *int                         `json:"max_occurrences" binding:"omitempty,min=1"`
	AutoConfirm             bool                         `json:"auto_confirm"`
	SpecialInstructions     string                       `json:"special_instructions" binding:"max=2000"`
	NotificationPreferences *NotificationPreferencesBody `json:"notification_preferences"`
	SkipDates               []string                     `json:"skip_dates" binding:"omitempty,dive,datetime=2006-01-02"`
}

func (r *CreateRecurringBookingRequest) toModel(customerID string) (recurring.CreateRequest, error) {
	start, err := recurring.ParseDate(r.StartDate)
	if err != nil {
		return recurring.CreateRequest{}, err
	}
	end, err := parseOptionalDate(r.EndDate)
	if err != nil {
		return recurring.CreateRequest{}, err
	}
	skips, err := parseDates(r.SkipDates)
	if err != nil {
		return recurring.CreateRequest{}, err
	}
	return recurring.CreateRequest{
		CustomerID:              customerID,
		ProviderID:              r.ProviderID,
		ServiceID:               r.ServiceID,
		Frequency:               recurring.Frequency(r.Frequency),
		RecurrenceInterval:      r.RecurrenceInterval,
		StartDate:               start,
		StartTime:               r.StartTime,
		DurationMinutes:         r.DurationMinutes,
		DaysOfWeek:              toWeekdays(r.DaysOfWeek),
		EndDate:                 end,
		MaxOccurrences:          r.MaxOccurrences,
		AutoConfirm:             r.AutoConfirm,
		SpecialInstructions:     r.SpecialInstructions,
		NotificationPreferences: r.NotificationPreferences.toModel(),
		SkipDates:               skips,
	}, nil
}

// UpdateRecurringBookingRequest is a partial update. Absent fields are kept;
// clear_end_date and clear_max_occurrences remove the respective bound.
type UpdateRecurringBookingRequest struct {
	Frequency               *string                      `json:"frequency" binding:"omitempty,oneof=daily weekly biweekly monthly quarterly"`
	RecurrenceInterval      *int                         `json:"recurrence_interval" binding:"omitempty,min=1,max=52"`
	StartTime               *string                      `json:"start_time" binding:"omitempty,datetime=15:04"`
	DurationMinutes         *int                         `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
	DaysOfWeek              *[]int                       `json:"days_of_week" binding:"omitempty,dive,min=0,max=6"`
	EndDate                 *string                      `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	ClearEndDate            bool                         `json:"clear_end_date"`
	MaxOccurrences          *int                         `json:"max_occurrences" binding:"omitempty,min=1"`
	ClearMaxOccurrences     bool                         `json:"clear_max_occurrences"`
	AutoConfirm             *bool                        `json:"auto_confirm"`
	SpecialInstructions     *string                      `json:"special_instructions" binding:"omitempty,max=2000"`
	NotificationPreferences *NotificationPreferencesBody `json:"notification_preferences"`
	SkipDates               *[]string                    `json:"skip_dates" binding:"omitempty,dive,datetime=2006-01-02"`
}

func (r *UpdateRecurringBookingRequest) toModel() (recurring.UpdateRequest, error) {
	end, err := parseOptionalDate(r.EndDate)
	if err != nil {
		return recurring.UpdateRequest{}, err
	}
	req := recurring.UpdateRequest{
		RecurrenceInterval:  r.RecurrenceInterval,
		StartTime:           r.StartTime,
		DurationMinutes:     r.DurationMinutes,
		EndDate:             end,
		ClearEndDate:        r.ClearEndDate,
		MaxOccurrences:      r.MaxOccurrences,
		ClearMaxOccurrences: r.ClearMaxOccurrences,
		AutoConfirm:         r.AutoConfirm,
		SpecialInstructions: r.SpecialInstructions,
	}
	if r.Frequency != nil {
		f := recurring.Frequency(*r.Frequency)
		req.Frequency = &f
	}
	if r.DaysOfWeek != nil {
		days := toWeekdays(*r.DaysOfWeek)
		req.DaysOfWeek = &days
	}
	if r.NotificationPreferences != nil {
		prefs := r.NotificationPreferences.toModel()
		req.NotificationPreferences = &prefs
	}
	if r.SkipDates != nil {
		skips, err := parseDates(*r.SkipDates)
		if err != nil {
			return recurring.UpdateRequest{}, err
		}
		req.SkipDates = &skips
	}
	return req, nil
}

type PauseRequest struct {
	Reason     string  `json:"reason" binding:"max=500"`
	PauseUntil *string `json:"pause_until" binding:"omitempty,datetime=2006-01-02"`
}

type ResumeRequest struct {
	ResumeDate     *string `json:"resume_date" binding:"omitempty,datetime=2006-01-02"`
	AdjustSchedule bool    `json:"adjust_schedule"`
}

type CreateExceptionRequest struct {
	ExceptionDate string  `json:"exception_date" binding:"required,datetime=2006-01-02"`
	Type          string  `json:"type" binding:"required,oneof=skip reschedule cancel"`
	NewDate       *string `json:"new_date" binding:"omitempty,datetime=2006-01-02"`
	NewTime       string  `json:"new_time" binding:"omitempty,datetime=15:04"`
	Reason        string  `json:"reason" binding:"max=500"`
}

type ListRecurringBookingsRequest struct {
	request.ListParams
	Status string `form:"status" binding:"omitempty,oneof=active paused completed cancelled"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=created_at next_occurrence_date status"`
}

type ListExceptionsRequest struct {
	Type string `form:"type" binding:"omitempty,oneof=skip reschedule cancel"`
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

type ListUpcomingRequest struct {
	request.ListParams
	Status string     `form:"status" binding:"omitempty,oneof=pending confirmed"`
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

type StatsRequest struct {
	IncludeRevenue    bool       `form:"include_revenue"`
	IncludeProjection bool       `form:"include_projection"`
	GroupBy           string     `form:"group_by" binding:"omitempty,oneof=day week month"`
	From              *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To                *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

type PreviewRequest struct {
	Count int `form:"count,default=10" binding:"min=1,max=100"`
}

type RecurringBookingResponse struct {
	ID                      string                            `json:"id"`
	CustomerID              string                            `json:"customer_id"`
	ProviderID              string                            `json:"provider_id"`
	ServiceID               string                            `json:"service_id"`
	Frequency               string                            `json:"frequency"`
	RecurrenceInterval      int                               `json:"recurrence_interval"`
	StartDate               string                            `json:"start_date"`
	StartTime               string                            `json:"start_time"`
	DurationMinutes         int                               `json:"duration_minutes"`
	DaysOfWeek              []int                             `json:"days_of_week"`
	NextOccurrenceDate      string                            `json:"next_occurrence_date"`
	EndDate                 *string                           `json:"end_date"`
	MaxOccurrences          *int                              `json:"max_occurrences"`
	OccurrenceCount         int                               `json:"occurrence_count"`
	LastMaterializedAt      *time.Time                        `json:"last_materialized_at"`
	AutoConfirm             bool                              `json:"auto_confirm"`
	SpecialInstructions     string                            `json:"special_instructions"`
	NotificationPreferences recurring.NotificationPreferences `json:"notification_preferences"`
	SkipDates               []string                          `json:"skip_dates"`
	Status                  string                            `json:"status"`
	PauseReason             string                            `json:"pause_reason,omitempty"`
	PausedAt                *time.Time                        `json:"paused_at,omitempty"`
	PausedUntil             *string                           `json:"paused_until,omitempty"`
	CancelledAt             *time.Time                        `json:"cancelled_at,omitempty"`
	Version                 int                               `json:"version"`
	CreatedAt               time.Time                         `json:"created_at"`
	UpdatedAt               time.Time                         `json:"updated_at"`
}

func NewRecurringBookingResponse(d *recurring.Definition) RecurringBookingResponse {
	days := make([]int, len(d.DaysOfWeek))
	for i, wd := range d.DaysOfWeek {
		days[i] = int(wd)
	}
	skips := make([]string, len(d.SkipDates))
	for i, s := range d.SkipDates {
		skips[i] = recurring.FormatDate(s)
	}
	return RecurringBookingResponse{
		ID:                      d.ID,
		CustomerID:              d.CustomerID,
		ProviderID:              d.ProviderID,
		ServiceID:               d.ServiceID,
		Frequency:               string(d.Frequency),
		RecurrenceInterval:      d.RecurrenceInterval,
		StartDate:               recurring.FormatDate(d.StartDate),
		StartTime:               d.StartTime,
		DurationMinutes:         d.DurationMinutes,
		DaysOfWeek:              days,
		NextOccurrenceDate:      recurring.FormatDate(d.NextOccurrenceDate),
		EndDate:                 formatOptionalDate(d.EndDate),
		MaxOccurrences:          d.MaxOccurrences,
		OccurrenceCount:         d.OccurrenceCount,
		LastMaterializedAt:      d.LastMaterializedAt,
		AutoConfirm:             d.AutoConfirm,
		SpecialInstructions:     d.SpecialInstructions,
		NotificationPreferences: d.NotificationPreferences,
		SkipDates:               skips,
		Status:                  string(d.Status),
		PauseReason:             d.PauseReason,
		PausedAt:                d.PausedAt,
		PausedUntil:             formatOptionalDate(d.PausedUntil),
		CancelledAt:             d.CancelledAt,
		Version:                 d.Version,
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               d.UpdatedAt,
	}
}

type ExceptionResponse struct {
	ID                 string    `json:"id"`
	RecurringBookingID string    `json:"recurring_booking_id"`
	ExceptionDate      string    `json:"exception_date"`
	Type               string    `json:"type"`
	NewDate            *string   `json:"new_date"`
	NewTime            string    `json:"new_time,omitempty"`
	Reason             string    `json:"reason"`
	CreatedAt          time.Time `json:"created_at"`
}

func NewExceptionResponse(e *recurring.Exception) ExceptionResponse {
	return ExceptionResponse{
		ID:                 e.ID,
		RecurringBookingID: e.RecurringBookingID,
		ExceptionDate:      recurring.FormatDate(e.ExceptionDate),
		Type:               string(e.Type),
		NewDate:            formatOptionalDate(e.NewDate),
		NewTime:            e.NewTime,
		Reason:             e.Reason,
		CreatedAt:          e.CreatedAt,
	}
}

type PeriodStatsResponse struct {
	Period    string `json:"period"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Cancelled int    `json:"cancelled"`
	Revenue   string `json:"revenue"`
}

type StatsResponse struct {
	TotalBookings       int                   `json:"total_bookings"`
	CompletedBookings   int                   `json:"completed_bookings"`
	UpcomingBookings    int                   `json:"upcoming_bookings"`
	CancelledBookings   int                   `json:"cancelled_bookings"`
	NextBookingDate     *time.Time            `json:"next_booking_date"`
	IsActive            bool                  `json:"is_active"`
	TotalRevenue        *string               `json:"total_revenue,omitempty"`
	AverageBookingValue *string               `json:"average_booking_value,omitempty"`
	ProjectedRevenue    *string               `json:"projected_revenue,omitempty"`
	PeriodStats         []PeriodStatsResponse `json:"period_stats,omitempty"`
}

func NewStatsResponse(s *recurring.Stats) StatsResponse {
	resp := StatsResponse{
		TotalBookings:     s.TotalBookings,
		CompletedBookings: s.CompletedBookings,
		UpcomingBookings:  s.UpcomingBookings,
		CancelledBookings: s.CancelledBookings,
		NextBookingDate:   s.NextBookingDate,
		IsActive:          s.IsActive,
	}
	if s.TotalRevenue != nil {
		v := s.TotalRevenue.StringFixed(2)
		resp.TotalRevenue = &v
	}
	if s.AverageBookingValue != nil {
		v := s.AverageBookingValue.StringFixed(2)
		resp.AverageBookingValue = &v
	}
	if s.ProjectedRevenue != nil {
		v := s.ProjectedRevenue.StringFixed(2)
		resp.ProjectedRevenue = &v
	}
	for _, p := range s.PeriodStats {
		resp.PeriodStats = append(resp.PeriodStats, PeriodStatsResponse{
			Period:    p.Period,
			Total:     p.Total,
			Completed: p.Completed,
			Cancelled: p.Cancelled,
			Revenue:   p.Revenue.StringFixed(2),
		})
	}
	return resp
}

type OccurrenceResponse struct {
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	Rescheduled bool   `json:"rescheduled"`
}

type TickResponse struct {
	Horizon      string   `json:"horizon"`
	Resumed      int      `json:"resumed"`
	Processed    int      `json:"processed"`
	Materialized int      `json:"materialized"`
	Skipped      int      `json:"skipped"`
	Completed    int      `json:"completed"`
	NotDue       int      `json:"not_due"`
	Failed       int      `json:"failed"`
	FailedIDs    []string `json:"failed_ids"`
}

func NewTickResponse(r recurring.TickReport) TickResponse {
	failed := r.FailedIDs
	if failed == nil {
		failed = []string{}
	}
	return TickResponse{
		Horizon:      recurring.FormatDate(r.Horizon),
		Resumed:      r.Resumed,
		Processed:    r.Processed,
		Materialized: r.Materialized,
		Skipped:      r.Skipped,
		Completed:    r.Completed,
		NotDue:       r.NotDue,
		Failed:       r.Failed,
		FailedIDs:    failed,
	}
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := recurring.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDates(values []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		t, err := recurring.ParseDate(v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := recurring.FormatDate(*t)
	return &s
}

func toWeekdays(days []int) []time.Weekday {
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}
