package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal/models/spcms"
	"sitepulse/internal/models/spcrm"
	"sitepulse/internal/models/spgeo"
	"sitepulse/internal/models/spmail"
	"sitepulse/internal/models/sptrack"
	"sitepulse/internal/spconfig"
	"sitepulse/internal/spmiddleware"
)

func setupTestApp(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	configuration = &spconfig.Config{
		SiteName:   "Test Site",
		Database:   spconfig.DatabaseConfig{Db: "sqlite", Path: ":memory:"},
		StaticPath: t.TempDir(),
		Production: false,
		Listen:     spconfig.ListenConfig{Website: "localhost:0"},
		Tracking:   spconfig.TrackingConfig{RateLimit: 30},
		User:       spconfig.UserConfig{Login: "admin"},
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&spgeo.IPInfo{},
		&sptrack.VisitorSession{},
		&sptrack.PageView{},
		&sptrack.DailyStat{},
		&spcms.Page{},
		&spcms.PageTranslation{},
		&spcms.ContentBlock{},
		&spcms.ContentBlockTranslation{},
		&spcms.Service{},
		&spcms.ServiceTranslation{},
		&spcrm.Company{},
		&spcrm.Contact{},
		&spcrm.Deal{},
		&spcrm.Task{},
		&spcrm.Activity{},
		&spmail.ContactSubmission{},
		&spmail.EmailSettings{},
	))

	geo, err := spgeo.NewResolver(db, "", "")
	require.NoError(t, err)

	tracker := sptrack.NewTracker(db, nil, geo, 0)
	t.Cleanup(tracker.Stop)

	mailer := spmail.New(db, spmail.NewResendClient(""))

	r := gin.New()
	spmiddleware.InitMiddleware(r, false)
	setRoutes(r, db, nil, tracker, mailer)
	return r
}

func TestPublicRoutesWired(t *testing.T) {
	r := setupTestApp(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/pages/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/captcha", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	r := setupTestApp(t)

	protected := []string{
		"/admin/api/stats/overview",
		"/admin/api/pages",
		"/admin/api/crm/deals",
		"/admin/api/dump",
		"/admin/api/contact/submissions",
	}

	for _, path := range protected {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
