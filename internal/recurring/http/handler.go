package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/auth"
	bookinghttp "github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking/http"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/request"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/response"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/recurring"
)

type Handler struct {
	service   recurring.Service
	scheduler recurring.Ticker
}

func NewHandler(service recurring.Service, scheduler recurring.Ticker) *Handler {
	return &Handler{service: service, scheduler: scheduler}
}

// scope returns the customer id that owns the request; admins act unscoped.
func scope(c *gin.Context) string {
	if auth.IsAdmin(c) {
		return ""
	}
	return auth.GetUserID(c)
}

func bindID(c *gin.Context) (string, bool) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return "", false
	}
	return req.ID, true
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRecurringBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req, err := body.toModel(auth.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	d, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewRecurringBookingResponse(d))
}

func (h *Handler) List(c *gin.Context) {
	var req ListRecurringBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := recurring.Filter{
		CustomerID: scope(c),
		Status:     req.Status,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  strings.ToUpper(req.SortOrder),
	}

	defs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]RecurringBookingResponse, len(defs))
	for i, d := range defs {
		items[i] = NewRecurringBookingResponse(d)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), id, scope(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRecurringBookingResponse(d))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body UpdateRecurringBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	req, err := body.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	d, err := h.service.Update(c.Request.Context(), id, scope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRecurringBookingResponse(d))
}

func (h *Handler) Pause(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body PauseRequest
	if err := bindOptionalJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	until, err := parseOptionalDate(body.PauseUntil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pause_until"})
		return
	}

	d, err := h.service.Pause(c.Request.Context(), id, scope(c), recurring.PauseRequest{
		Reason:     body.Reason,
		PauseUntil: until,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRecurringBookingResponse(d))
}

func (h *Handler) Resume(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body ResumeRequest
	if err := bindOptionalJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	resumeDate, err := parseOptionalDate(body.ResumeDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resume_date"})
		return
	}

	d, err := h.service.Resume(c.Request.Context(), id, scope(c), recurring.ResumeRequest{
		ResumeDate:     resumeDate,
		AdjustSchedule: body.AdjustSchedule,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRecurringBookingResponse(d))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	d, err := h.service.Cancel(c.Request.Context(), id, scope(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRecurringBookingResponse(d))
}

func (h *Handler) AddException(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body CreateExceptionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	date, err := recurring.ParseDate(body.ExceptionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exception_date"})
		return
	}
	newDate, err := parseOptionalDate(body.NewDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid new_date"})
		return
	}

	e, err := h.service.AddException(c.Request.Context(), id, scope(c), recurring.ExceptionRequest{
		ExceptionDate: date,
		Type:          recurring.ExceptionType(body.Type),
		NewDate:       newDate,
		NewTime:       body.NewTime,
		Reason:        body.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewExceptionResponse(e))
}

func (h *Handler) ListExceptions(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req ListExceptionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := recurring.ExceptionFilter{Type: req.Type}
	if req.From != "" {
		from, _ := recurring.ParseDate(req.From)
		filter.From = &from
	}
	if req.To != "" {
		to, _ := recurring.ParseDate(req.To)
		filter.To = &to
	}

	exceptions, err := h.service.ListExceptions(c.Request.Context(), id, scope(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ExceptionResponse, len(exceptions))
	for i, e := range exceptions {
		items[i] = NewExceptionResponse(e)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) ListBookings(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req ListUpcomingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	bookings, total, err := h.service.ListUpcomingBookings(c.Request.Context(), id, scope(c), recurring.UpcomingFilter{
		From:     req.From,
		To:       req.To,
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]bookinghttp.BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = bookinghttp.NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Stats(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req StatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), id, scope(c), recurring.StatsOptions{
		IncludeRevenue:    req.IncludeRevenue,
		IncludeProjection: req.IncludeProjection,
		GroupBy:           recurring.Grouping(req.GroupBy),
		From:              req.From,
		To:                req.To,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewStatsResponse(stats))
}

func (h *Handler) Preview(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var req PreviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	occurrences, err := h.service.Preview(c.Request.Context(), id, scope(c), req.Count)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]OccurrenceResponse, len(occurrences))
	for i, o := range occurrences {
		items[i] = OccurrenceResponse{
			Date:        recurring.FormatDate(o.Date),
			StartTime:   o.StartTime,
			Rescheduled: o.Rescheduled,
		}
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Calendar(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	body, err := h.service.Calendar(c.Request.Context(), id, scope(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="recurring-booking-`+id+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}

// Tick runs one scheduler pass on demand.
func (h *Handler) Tick(c *gin.Context) {
	report, err := h.scheduler.Tick(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewTickResponse(report))
}

// bindOptionalJSON accepts an empty body as the zero request.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(obj)
}
