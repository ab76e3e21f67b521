package spmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecretKey(t *testing.T) {
	key := generateSecretKey()
	assert.Len(t, key, 32)

	key2 := generateSecretKey()
	assert.NotEqual(t, key, key2)
}

func TestCORSPreflightAnswers204(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS)
	r.POST("/api/track", func(c *gin.Context) { c.Status(200) })

	req := httptest.NewRequest(http.MethodOptions, "/api/track", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthRequiredBlocksAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewSession(false))
	r.GET("/admin/api/stats", AuthRequired(), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestAuthRequiredAllowsLoggedIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewSession(false))
	r.POST("/login", func(c *gin.Context) {
		require.NoError(t, SetUser(c, "admin"))
		c.Status(200)
	})
	r.GET("/protected", AuthRequired(), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	loginReq := httptest.NewRequest(http.MethodPost, "/login", nil)
	loginW := httptest.NewRecorder()
	r.ServeHTTP(loginW, loginReq)
	require.Equal(t, 200, loginW.Code)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for _, cookie := range loginW.Result().Cookies() {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
}

func TestClientIPPrecedence(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{
			name:     "forwarded-for first entry wins",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1", "X-Real-IP": "203.0.113.2"},
			expected: "203.0.113.1",
		},
		{
			name:     "real-ip fallback",
			headers:  map[string]string{"X-Real-IP": "203.0.113.2"},
			expected: "203.0.113.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			r := gin.New()
			r.GET("/", func(c *gin.Context) {
				got = ClientIP(c)
				c.Status(200)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewTrackLimiter(t *testing.T) {
	lim := NewTrackLimiter(2, time.Minute)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	first, err := lim.Get(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, first.Reached)

	second, err := lim.Get(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, second.Reached)

	third, err := lim.Get(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, third.Reached)

	// Another client gets its own budget.
	other, err := lim.Get(ctx, "203.0.113.10")
	require.NoError(t, err)
	assert.False(t, other.Reached)
}
