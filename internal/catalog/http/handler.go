package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/catalog"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/request"
)

type Handler struct {
	service catalog.CatalogService
}

func NewHandler(service catalog.CatalogService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get service"})
		}
		return
	}

	c.JSON(http.StatusOK, NewServiceResponse(s))
}
