package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/visioweb/askboard/database/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func withUser(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

func serve(handlers ...gin.HandlerFunc) int {
	engine := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	engine.GET("/", handlers...)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Code
}

func TestRequirements(t *testing.T) {
	plain := &model.User{Id: 1}
	confirmed := &model.User{Id: 2, Confirmed: true}
	admin := &model.User{Id: 3, Confirmed: true, IsAdmin: true}

	tests := []struct {
		name    string
		user    *model.User
		handler gin.HandlerFunc
		want    int
	}{
		{"login anonymous", nil, LoginRequired(), http.StatusUnauthorized},
		{"login ok", plain, LoginRequired(), http.StatusNoContent},
		{"confirmed anonymous", nil, ConfirmedRequired(), http.StatusUnauthorized},
		{"confirmed rejects unconfirmed", plain, ConfirmedRequired(), http.StatusForbidden},
		{"confirmed ok", confirmed, ConfirmedRequired(), http.StatusNoContent},
		{"admin rejects user", confirmed, AdminRequired(), http.StatusForbidden},
		{"admin ok", admin, AdminRequired(), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(withUser(tt.user), tt.handler))
		})
	}
}

func TestRateLimit(t *testing.T) {
	limit := RateLimitMiddleware(RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         2,
		KeyFunc:           func(c *gin.Context) string { return "client" },
	})
	engine := gin.New()
	engine.GET("/", limit, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimitSkipsPaths(t *testing.T) {
	config := RateLimitConfig{SkipPaths: []string{"/api/questions"}}
	assert.True(t, config.shouldSkip("/api/questions/3"))
	assert.False(t, config.shouldSkip("/api/auth/login"))
}
