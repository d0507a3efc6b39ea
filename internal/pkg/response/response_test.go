package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/pkg/apperror"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"app error", apperror.New(http.StatusConflict, "already taken"), http.StatusConflict, `{"error":"already taken"}`},
		{"cause hidden", apperror.New(http.StatusNotFound, "missing").WithCause(errors.New("fk_bookings")), http.StatusNotFound, `{"error":"missing"}`},
		{"unknown", errors.New("dial tcp: refused"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Error(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	page := NewPageResponse[string](nil, 1, 20, 0)
	assert.NotNil(t, page.Items)
	assert.False(t, page.HasMore)

	page = NewPageResponse([]string{"a", "b"}, 1, 2, 5)
	assert.True(t, page.HasMore)
	page = NewPageResponse([]string{"e"}, 3, 2, 5)
	assert.False(t, page.HasMore)
}
