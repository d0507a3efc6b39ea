package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/auth"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/recurring-bookings")

	group.Use(authMiddleware)
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.PATCH("/:id", h.Update)
		group.POST("/:id/pause", h.Pause)
		group.POST("/:id/resume", h.Resume)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/exceptions", h.AddException)
		group.GET("/:id/exceptions", h.ListExceptions)
		group.GET("/:id/bookings", h.ListBookings)
		group.GET("/:id/stats", h.Stats)
		group.GET("/:id/preview", h.Preview)
		group.GET("/:id/calendar.ics", h.Calendar)
	}

	admin := g.Group("/admin/recurring-bookings")
	admin.Use(authMiddleware, auth.RequireAdmin())
	{
		admin.POST("/tick", h.Tick)
	}
}
