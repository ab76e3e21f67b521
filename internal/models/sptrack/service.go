package sptrack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitepulse/internal/models/spgeo"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Visit is a normalized tracking event, either enter or exit.
type Visit struct {
	SessionID  string
	PageURL    string
	PagePath   string
	Referer    string
	UserAgent  string
	PageViewID uint64
	Duration   int
}

// Tracker records enter/exit events. Failure policy follows the dashboard's
// needs, not the visitor's: only a failed session insert aborts a request,
// every other write error is logged and swallowed so the beacon endpoint
// never surfaces problems to the browser.
type Tracker struct {
	db    *gorm.DB
	redis *redis.Client
	geo   *spgeo.Resolver
	cron  *cron.Cron
}

func NewTracker(db *gorm.DB, redisClient *redis.Client, geo *spgeo.Resolver, retentionDays int) *Tracker {
	t := &Tracker{
		db:    db,
		redis: redisClient,
		geo:   geo,
	}
	if retentionDays > 0 {
		t.cron = setupCleanupCron(db, retentionDays)
	}
	return t
}

func (t *Tracker) Stop() {
	if t.cron != nil {
		t.cron.Stop()
	}
}

// RecordExit patches the page view identified by the enter response. A
// missing or already-patched row is not an error worth reporting to the
// caller.
func (t *Tracker) RecordExit(ctx context.Context, pageViewID uint64, duration int) {
	now := time.Now()
	err := t.db.WithContext(ctx).Model(&PageView{}).
		Where("id = ?", pageViewID).
		Updates(map[string]interface{}{
			"exited_at":        now,
			"duration_seconds": duration,
		}).Error
	if err != nil {
		log.Error().Err(err).Uint64("page_view_id", pageViewID).Msg("page view exit update failed")
	}
}

// RecordEnter runs the full enter flow: geolocation, user-agent parsing,
// session upsert, page-view insert and the daily counters. It returns the
// new page view id so a later exit event can reference it; the id is zero
// when the page-view insert failed.
func (t *Tracker) RecordEnter(ctx context.Context, visit Visit, clientIP string) (uint64, error) {
	now := time.Now()

	ipInfo := t.geo.Resolve(ctx, clientIP)
	ua := ParseUserAgent(visit.UserAgent)

	session, err := t.upsertSession(ctx, visit, ua, ipInfo, now)
	if err != nil {
		return 0, err
	}

	pageView := PageView{
		SessionID: session.ID,
		PagePath:  visit.PagePath,
		PageURL:   visit.PageURL,
		Referer:   visit.Referer,
		EnteredAt: now,
	}
	if err := t.db.WithContext(ctx).Create(&pageView).Error; err != nil {
		log.Error().Err(err).Str("path", visit.PagePath).Msg("page view insert failed")
		pageView.ID = 0
	}

	t.bumpDailyStats(ctx, now)
	t.mirrorToRedis(ctx, visit.SessionID, now)

	return pageView.ID, nil
}

func (t *Tracker) upsertSession(ctx context.Context, visit Visit, ua UAInfo, ipInfo *spgeo.IPInfo, now time.Time) (*VisitorSession, error) {
	var session VisitorSession
	err := t.db.WithContext(ctx).Where("session_id = ?", visit.SessionID).First(&session).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		session = VisitorSession{
			SessionID:    visit.SessionID,
			UserAgent:    visit.UserAgent,
			Browser:      ua.Browser,
			OS:           ua.OS,
			DeviceType:   ua.DeviceType,
			TotalVisits:  1,
			FirstVisitAt: now,
			LastVisitAt:  now,
		}
		if ipInfo != nil {
			session.IPInfoID = &ipInfo.ID
		}
		if createErr := t.db.WithContext(ctx).Create(&session).Error; createErr != nil {
			// Two first enters for the same token can race; the unique
			// index rejects the loser, which then reuses the winner's row.
			if err2 := t.db.WithContext(ctx).Where("session_id = ?", visit.SessionID).First(&session).Error; err2 != nil {
				return nil, fmt.Errorf("create visitor session: %w", createErr)
			}
			t.bumpSession(ctx, &session, ipInfo, now)
		}
		return &session, nil
	}

	if err != nil {
		return nil, fmt.Errorf("visitor session lookup: %w", err)
	}

	t.bumpSession(ctx, &session, ipInfo, now)
	return &session, nil
}

func (t *Tracker) bumpSession(ctx context.Context, session *VisitorSession, ipInfo *spgeo.IPInfo, now time.Time) {
	updates := map[string]interface{}{
		"last_visit_at": now,
		"total_visits":  gorm.Expr("total_visits + 1"),
	}
	// Backfill the geolocation link if the session was created before the
	// IP could be resolved.
	if session.IPInfoID == nil && ipInfo != nil {
		updates["ip_info_id"] = ipInfo.ID
	}
	if err := t.db.WithContext(ctx).Model(session).Updates(updates).Error; err != nil {
		log.Error().Err(err).Str("session", session.SessionID).Msg("visitor session update failed")
	}
}

// bumpDailyStats increments today's counters with one atomic update; the
// insert only happens on the first event of a date, and an insert lost to a
// concurrent request falls back to the update path.
func (t *Tracker) bumpDailyStats(ctx context.Context, now time.Time) {
	today := now.Format("2006-01-02")
	increments := map[string]interface{}{
		"total_visits":     gorm.Expr("total_visits + 1"),
		"total_page_views": gorm.Expr("total_page_views + 1"),
	}

	res := t.db.WithContext(ctx).Model(&DailyStat{}).Where("date = ?", today).Updates(increments)
	if res.Error != nil {
		log.Error().Err(res.Error).Str("date", today).Msg("daily stats update failed")
		return
	}
	if res.RowsAffected > 0 {
		return
	}

	stat := DailyStat{Date: today, TotalVisits: 1, TotalPageViews: 1}
	if err := t.db.WithContext(ctx).Create(&stat).Error; err != nil {
		res = t.db.WithContext(ctx).Model(&DailyStat{}).Where("date = ?", today).Updates(increments)
		if res.Error != nil || res.RowsAffected == 0 {
			log.Error().Err(err).Str("date", today).Msg("daily stats insert failed")
		}
	}
}

// mirrorToRedis keeps best-effort realtime counters per date. Skipped
// entirely when redis is not configured.
func (t *Tracker) mirrorToRedis(ctx context.Context, sessionToken string, now time.Time) {
	if t.redis == nil {
		return
	}

	date := now.Format("2006-01-02")
	dailyKey := fmt.Sprintf("stats:daily:%s", date)
	t.redis.HIncrBy(ctx, dailyKey, "page_views", 1)
	t.redis.Expire(ctx, dailyKey, 31*24*time.Hour)

	visitorKey := fmt.Sprintf("stats:visitors:%s", date)
	t.redis.SAdd(ctx, visitorKey, sessionToken)
	t.redis.Expire(ctx, visitorKey, 31*24*time.Hour)
}

func cleanupOldData(db *gorm.DB, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := db.Where("created_at < ?", cutoff).Delete(&PageView{})
	if result.Error != nil {
		return result.Error
	}
	log.Info().Int64("rows", result.RowsAffected).Msg("deleted old page views")

	result = db.Where("last_visit_at < ?", cutoff).Delete(&VisitorSession{})
	if result.Error != nil {
		return result.Error
	}
	log.Info().Int64("rows", result.RowsAffected).Msg("deleted idle visitor sessions")

	return nil
}

func setupCleanupCron(db *gorm.DB, retentionDays int) *cron.Cron {
	c := cron.New()

	// Every day at 02:00.
	c.AddFunc("0 2 * * *", func() {
		if err := cleanupOldData(db, retentionDays); err != nil {
			log.Error().Err(err).Msg("tracking cleanup failed")
		}
	})

	c.Start()
	return c
}
