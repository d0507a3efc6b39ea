package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(m *JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(m), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "admin": IsAdmin(c)})
	})
	r.GET("/admin", AuthRequired(m), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	r := newTestRouter(m)

	token, err := m.GenerateAccessToken("user-1", "u@example.com", "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", "garbage").Code)

	w := doGet(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"user-1","admin":false}`, w.Body.String())

	other := NewJWTManager("other-secret", time.Minute)
	forged, err := other.GenerateAccessToken("user-1", "u@example.com", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", forged).Code)
}

func TestRequireAdmin(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	r := newTestRouter(m)

	customer, _ := m.GenerateAccessToken("user-1", "u@example.com", "")
	admin, _ := m.GenerateAccessToken("admin-1", "a@example.com", RoleAdmin)

	assert.Equal(t, http.StatusForbidden, doGet(r, "/admin", customer).Code)
	assert.Equal(t, http.StatusNoContent, doGet(r, "/admin", admin).Code)
}

func TestExpiredToken(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)
	token, err := m.GenerateAccessToken("user-1", "u@example.com", "")
	require.NoError(t, err)

	_, err = m.ParseAndValidate(token)
	assert.Error(t, err)
}
