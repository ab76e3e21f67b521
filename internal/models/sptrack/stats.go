package sptrack

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Overview aggregates the headline numbers for the stats dashboard.
type Overview struct {
	TotalVisits     int64   `json:"total_visits"`
	TotalPageViews  int64   `json:"total_page_views"`
	UniqueVisitors  int64   `json:"unique_visitors"`
	AvgDurationSecs float64 `json:"avg_duration_seconds"`
	VPNVisitors     int64   `json:"vpn_visitors"`
	ProxyVisitors   int64   `json:"proxy_visitors"`
}

type PageStat struct {
	Path     string  `json:"path"`
	Views    int64   `json:"views"`
	AvgSecs  float64 `json:"avg_seconds"`
	Visitors int64   `json:"visitors"`
}

type RefererStat struct {
	Referer string `json:"referer"`
	Count   int64  `json:"count"`
}

// VisitorRow is one line of the visitors table, sessions joined with their
// geolocation record.
type VisitorRow struct {
	SessionID      string    `json:"session_id"`
	Browser        string    `json:"browser"`
	OS             string    `json:"os"`
	DeviceType     string    `json:"device_type"`
	TotalVisits    int       `json:"total_visits"`
	FirstVisitAt   time.Time `json:"first_visit_at"`
	LastVisitAt    time.Time `json:"last_visit_at"`
	Country        string    `json:"country"`
	City           string    `json:"city"`
	ConnectionType string    `json:"connection_type"`
}

// GetOverview computes totals over the last `days` days.
func (t *Tracker) GetOverview(ctx context.Context, days int) (*Overview, error) {
	since := time.Now().AddDate(0, 0, -days)
	db := t.db.WithContext(ctx)

	o := &Overview{}

	err := db.Model(&PageView{}).
		Where("created_at >= ?", since).
		Count(&o.TotalPageViews).Error
	if err != nil {
		return nil, fmt.Errorf("counting page views: %w", err)
	}

	err = db.Model(&VisitorSession{}).
		Where("last_visit_at >= ?", since).
		Count(&o.UniqueVisitors).Error
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	var totalVisits *int64
	err = db.Model(&DailyStat{}).
		Select("SUM(total_visits)").
		Where("date >= ?", since.Format("2006-01-02")).
		Scan(&totalVisits).Error
	if err != nil {
		return nil, fmt.Errorf("summing daily visits: %w", err)
	}
	if totalVisits != nil {
		o.TotalVisits = *totalVisits
	}

	var avg *float64
	err = db.Model(&PageView{}).
		Select("AVG(duration_seconds)").
		Where("created_at >= ? AND duration_seconds IS NOT NULL", since).
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("averaging durations: %w", err)
	}
	if avg != nil {
		o.AvgDurationSecs = *avg
	}

	err = db.Table("visitor_sessions").
		Joins("JOIN ip_info ON ip_info.id = visitor_sessions.ip_info_id").
		Where("visitor_sessions.last_visit_at >= ? AND ip_info.is_vpn = ?", since, true).
		Count(&o.VPNVisitors).Error
	if err != nil {
		return nil, fmt.Errorf("counting vpn visitors: %w", err)
	}

	err = db.Table("visitor_sessions").
		Joins("JOIN ip_info ON ip_info.id = visitor_sessions.ip_info_id").
		Where("visitor_sessions.last_visit_at >= ? AND ip_info.is_proxy = ?", since, true).
		Count(&o.ProxyVisitors).Error
	if err != nil {
		return nil, fmt.Errorf("counting proxy visitors: %w", err)
	}

	return o, nil
}

// GetDailySeries returns the stored per-date counters, oldest first.
func (t *Tracker) GetDailySeries(ctx context.Context, days int) ([]DailyStat, error) {
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	var stats []DailyStat
	err := t.db.WithContext(ctx).
		Where("date >= ?", since).
		Order("date ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("loading daily stats: %w", err)
	}
	return stats, nil
}

// GetTopPages lists the most viewed paths over the last `days` days.
func (t *Tracker) GetTopPages(ctx context.Context, days, limit int) ([]PageStat, error) {
	since := time.Now().AddDate(0, 0, -days)

	var pages []PageStat
	err := t.db.WithContext(ctx).Model(&PageView{}).
		Select("page_path AS path, COUNT(*) AS views, AVG(duration_seconds) AS avg_secs, COUNT(DISTINCT session_id) AS visitors").
		Where("created_at >= ?", since).
		Group("page_path").
		Order("views DESC").
		Limit(limit).
		Scan(&pages).Error
	if err != nil {
		return nil, fmt.Errorf("top pages query: %w", err)
	}
	return pages, nil
}

// GetTopReferers lists the most frequent non-empty referers.
func (t *Tracker) GetTopReferers(ctx context.Context, days, limit int) ([]RefererStat, error) {
	since := time.Now().AddDate(0, 0, -days)

	var referers []RefererStat
	err := t.db.WithContext(ctx).Model(&PageView{}).
		Select("referer, COUNT(*) AS count").
		Where("created_at >= ? AND referer != ''", since).
		Group("referer").
		Order("count DESC").
		Limit(limit).
		Scan(&referers).Error
	if err != nil {
		return nil, fmt.Errorf("top referers query: %w", err)
	}
	return referers, nil
}

// GetVisitors pages through recent sessions with their geolocation.
func (t *Tracker) GetVisitors(ctx context.Context, limit, offset int) ([]VisitorRow, error) {
	var rows []VisitorRow
	err := t.db.WithContext(ctx).Table("visitor_sessions").
		Select(`visitor_sessions.session_id, visitor_sessions.browser, visitor_sessions.os,
			visitor_sessions.device_type, visitor_sessions.total_visits,
			visitor_sessions.first_visit_at, visitor_sessions.last_visit_at,
			ip_info.country, ip_info.city, ip_info.connection_type`).
		Joins("LEFT JOIN ip_info ON ip_info.id = visitor_sessions.ip_info_id").
		Order("visitor_sessions.last_visit_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("visitors query: %w", err)
	}
	return rows, nil
}

// GetRealtime reads today's counters from redis. Returns zeros when redis
// is not configured.
func (t *Tracker) GetRealtime(ctx context.Context) (map[string]interface{}, error) {
	if t.redis == nil {
		return map[string]interface{}{
			"today_page_views":      int64(0),
			"today_unique_visitors": int64(0),
		}, nil
	}

	today := time.Now().Format("2006-01-02")

	pageViews, err := t.redis.HGet(ctx, fmt.Sprintf("stats:daily:%s", today), "page_views").Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	uniqueVisitors, err := t.redis.SCard(ctx, fmt.Sprintf("stats:visitors:%s", today)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	return map[string]interface{}{
		"today_page_views":      pageViews,
		"today_unique_visitors": uniqueVisitors,
	}, nil
}
