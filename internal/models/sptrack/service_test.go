package sptrack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal/models/spgeo"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = testDB.AutoMigrate(&spgeo.IPInfo{}, &VisitorSession{}, &PageView{}, &DailyStat{})
	require.NoError(t, err)

	return testDB
}

func setupTracker(t *testing.T) (*Tracker, *gorm.DB) {
	db := setupTestDB(t)
	geo, err := spgeo.NewResolver(db, "", "")
	require.NoError(t, err)
	return NewTracker(db, nil, geo, 0), db
}

func TestRecordEnterCreatesSessionAndPageView(t *testing.T) {
	tracker, db := setupTracker(t)
	ctx := context.Background()

	visit := Visit{
		SessionID: "1700000000-abc123",
		PageURL:   "https://example.com/services",
		PagePath:  "/services",
		Referer:   "https://google.com",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0.0.0 Safari/537.36",
	}

	pageViewID, err := tracker.RecordEnter(ctx, visit, "203.0.113.10")
	require.NoError(t, err)
	assert.NotZero(t, pageViewID)

	var session VisitorSession
	require.NoError(t, db.Where("session_id = ?", visit.SessionID).First(&session).Error)
	assert.Equal(t, "Chrome", session.Browser)
	assert.Equal(t, "Windows", session.OS)
	assert.Equal(t, 1, session.TotalVisits)

	var pv PageView
	require.NoError(t, db.First(&pv, pageViewID).Error)
	assert.Equal(t, session.ID, pv.SessionID)
	assert.Equal(t, "/services", pv.PagePath)
	assert.Nil(t, pv.ExitedAt)
	assert.Nil(t, pv.DurationSeconds)
}

func TestRecordEnterBumpsExistingSession(t *testing.T) {
	tracker, db := setupTracker(t)
	ctx := context.Background()

	visit := Visit{
		SessionID: "1700000000-repeat",
		PagePath:  "/",
		UserAgent: "Mozilla/5.0 Firefox/121.0",
	}

	_, err := tracker.RecordEnter(ctx, visit, "203.0.113.11")
	require.NoError(t, err)
	visit.PagePath = "/contact"
	_, err = tracker.RecordEnter(ctx, visit, "203.0.113.11")
	require.NoError(t, err)

	var sessions []VisitorSession
	require.NoError(t, db.Find(&sessions).Error)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].TotalVisits)

	var count int64
	require.NoError(t, db.Model(&PageView{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRecordExit(t *testing.T) {
	tracker, db := setupTracker(t)
	ctx := context.Background()

	pageViewID, err := tracker.RecordEnter(ctx, Visit{
		SessionID: "1700000000-exit",
		PagePath:  "/pricing",
		UserAgent: "Mozilla/5.0",
	}, "203.0.113.12")
	require.NoError(t, err)

	tracker.RecordExit(ctx, pageViewID, 42)

	var pv PageView
	require.NoError(t, db.First(&pv, pageViewID).Error)
	require.NotNil(t, pv.ExitedAt)
	require.NotNil(t, pv.DurationSeconds)
	assert.Equal(t, 42, *pv.DurationSeconds)
}

func TestRecordExitUnknownIDIsSilent(t *testing.T) {
	tracker, _ := setupTracker(t)

	// Must not panic or error out; the row simply does not exist.
	tracker.RecordExit(context.Background(), 99999, 5)
}

func TestDailyStatsIncrement(t *testing.T) {
	tracker, db := setupTracker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := tracker.RecordEnter(ctx, Visit{
			SessionID: "1700000000-daily",
			PagePath:  "/",
			UserAgent: "Mozilla/5.0",
		}, "203.0.113.13")
		require.NoError(t, err)
	}

	var stat DailyStat
	today := time.Now().Format("2006-01-02")
	require.NoError(t, db.Where("date = ?", today).First(&stat).Error)
	assert.Equal(t, int64(3), stat.TotalVisits)
	assert.Equal(t, int64(3), stat.TotalPageViews)
}

func TestGetOverviewAndTopPages(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	pages := []string{"/", "/", "/services", "/contact"}
	for i, path := range pages {
		pvID, err := tracker.RecordEnter(ctx, Visit{
			SessionID: "1700000000-stats",
			PagePath:  path,
			UserAgent: "Mozilla/5.0",
		}, "203.0.113.14")
		require.NoError(t, err)
		tracker.RecordExit(ctx, pvID, (i+1)*10)
	}

	overview, err := tracker.GetOverview(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(4), overview.TotalPageViews)
	assert.Equal(t, int64(1), overview.UniqueVisitors)
	assert.Equal(t, int64(4), overview.TotalVisits)
	assert.Greater(t, overview.AvgDurationSecs, 0.0)

	top, err := tracker.GetTopPages(ctx, 30, 10)
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, "/", top[0].Path)
	assert.Equal(t, int64(2), top[0].Views)
}

func TestGetTopReferersSkipsEmpty(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	_, err := tracker.RecordEnter(ctx, Visit{
		SessionID: "1700000000-ref",
		PagePath:  "/",
		Referer:   "https://duckduckgo.com",
		UserAgent: "Mozilla/5.0",
	}, "203.0.113.15")
	require.NoError(t, err)

	_, err = tracker.RecordEnter(ctx, Visit{
		SessionID: "1700000000-ref",
		PagePath:  "/about",
		UserAgent: "Mozilla/5.0",
	}, "203.0.113.15")
	require.NoError(t, err)

	referers, err := tracker.GetTopReferers(ctx, 30, 10)
	require.NoError(t, err)
	require.Len(t, referers, 1)
	assert.Equal(t, "https://duckduckgo.com", referers[0].Referer)
	assert.Equal(t, int64(1), referers[0].Count)
}

func TestGetRealtimeWithoutRedis(t *testing.T) {
	tracker, _ := setupTracker(t)

	data, err := tracker.GetRealtime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), data["today_page_views"])
	assert.Equal(t, int64(0), data["today_unique_visitors"])
}

func TestCleanupOldData(t *testing.T) {
	_, db := setupTracker(t)

	old := time.Now().AddDate(0, 0, -120)
	session := VisitorSession{
		SessionID:    "1600000000-old",
		FirstVisitAt: old,
		LastVisitAt:  old,
	}
	require.NoError(t, db.Create(&session).Error)
	require.NoError(t, db.Model(&session).Update("last_visit_at", old).Error)

	require.NoError(t, cleanupOldData(db, 90))

	var count int64
	require.NoError(t, db.Model(&VisitorSession{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
