package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/auth"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/booking"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/request"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Customers only ever see their own bookings; admins see everything.
	customerID := auth.GetUserID(c)
	if auth.IsAdmin(c) {
		customerID = ""
	}

	filter := booking.Filter{
		CustomerID:         customerID,
		RecurringBookingID: req.RecurringBookingID,
		Status:             req.Status,
		StartTime:          req.StartTimeFrom,
		EndTime:            req.StartTimeTo,
		Page:               req.Page,
		PageSize:           req.PageSize,
		SortBy:             req.SortBy,
		SortOrder:          strings.ToUpper(req.SortOrder),
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	resp := response.NewPageResponse(items, req.Page, req.PageSize, total)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get booking"})
		}
		return
	}

	// Access Check: User owns booking OR admin
	if b.CustomerID != auth.GetUserID(c) && !auth.IsAdmin(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}
