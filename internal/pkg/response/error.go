package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/logging"
	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/apperror"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Error writes err as a JSON body. AppErrors expose their status and message;
// anything else is logged with the request logger and reported as a bare 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			logging.FromContext(c.Request.Context(), nil).Error("request failed", "error", err)
		}
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
		return
	}

	logging.FromContext(c.Request.Context(), nil).Error("request failed",
		"error", err, "method", c.Request.Method, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
