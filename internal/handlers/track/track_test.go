package track

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal/models/spgeo"
	"sitepulse/internal/models/sptrack"
	"sitepulse/internal/spmiddleware"
)

func setupRouter(t *testing.T, rateLimit int64) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&spgeo.IPInfo{}, &sptrack.VisitorSession{}, &sptrack.PageView{}, &sptrack.DailyStat{},
	))

	geo, err := spgeo.NewResolver(db, "", "")
	require.NoError(t, err)

	tracker := sptrack.NewTracker(db, nil, geo, 0)
	handler := New(tracker, spmiddleware.NewTrackLimiter(rateLimit, time.Minute))

	r := gin.New()
	r.POST("/api/track", handler.Track)
	r.GET("/track.js", handler.Script)
	return r, db
}

func postTrack(r *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/track", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.77")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTrackEnter(t *testing.T) {
	r, db := setupRouter(t, 30)

	w := postTrack(r, map[string]any{
		"sessionId": "1700000000-track",
		"pageUrl":   "https://example.com/",
		"pagePath":  "/",
		"userAgent": "Mozilla/5.0 Chrome/120.0 Safari/537.36",
		"action":    "enter",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success    bool   `json:"success"`
		PageViewID uint64 `json:"pageViewId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotZero(t, resp.PageViewID)

	var count int64
	require.NoError(t, db.Model(&sptrack.PageView{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTrackExit(t *testing.T) {
	r, db := setupRouter(t, 30)

	w := postTrack(r, map[string]any{
		"sessionId": "1700000000-track",
		"pagePath":  "/",
		"userAgent": "Mozilla/5.0",
		"action":    "enter",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var enterResp struct {
		PageViewID uint64 `json:"pageViewId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &enterResp))

	w = postTrack(r, map[string]any{
		"sessionId":  "1700000000-track",
		"pagePath":   "/",
		"userAgent":  "Mozilla/5.0",
		"action":     "exit",
		"pageViewId": enterResp.PageViewID,
		"duration":   42,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var pv sptrack.PageView
	require.NoError(t, db.First(&pv, enterResp.PageViewID).Error)
	require.NotNil(t, pv.DurationSeconds)
	assert.Equal(t, 42, *pv.DurationSeconds)
}

func TestTrackRejectsLongSessionID(t *testing.T) {
	r, db := setupRouter(t, 30)

	w := postTrack(r, map[string]any{
		"sessionId": strings.Repeat("x", 101),
		"pagePath":  "/",
		"userAgent": "Mozilla/5.0",
		"action":    "enter",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&sptrack.VisitorSession{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestTrackRejectsLongPagePath(t *testing.T) {
	r, _ := setupRouter(t, 30)

	w := postTrack(r, map[string]any{
		"sessionId": "1700000000-long",
		"pagePath":  "/" + strings.Repeat("p", 500),
		"userAgent": "Mozilla/5.0",
		"action":    "enter",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackRateLimit(t *testing.T) {
	r, _ := setupRouter(t, 3)

	for i := 0; i < 3; i++ {
		w := postTrack(r, map[string]any{
			"sessionId": fmt.Sprintf("1700000000-rl%d", i),
			"pagePath":  "/",
			"userAgent": "Mozilla/5.0",
			"action":    "enter",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := postTrack(r, map[string]any{
		"sessionId": "1700000000-over",
		"pagePath":  "/",
		"userAgent": "Mozilla/5.0",
		"action":    "enter",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestTrackScript(t *testing.T) {
	r, _ := setupRouter(t, 30)

	req := httptest.NewRequest(http.MethodGet, "/track.js", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=3600")
	assert.Contains(t, w.Body.String(), "visitor_session_id")
	// Minified output must stay smaller than the embedded source.
	assert.Less(t, w.Body.Len(), len(trackerJS))
}
