package sptrack

import (
	"time"

	"sitepulse/internal/models/spgeo"
)

// VisitorSession is one browser tab/session, identified by the opaque token
// the tracking snippet generates client-side.
type VisitorSession struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	SessionID    string        `gorm:"uniqueIndex;not null;size:100" json:"session_id"`
	IPInfoID     *uint         `gorm:"index" json:"ip_info_id"`
	IPInfo       *spgeo.IPInfo `gorm:"foreignKey:IPInfoID" json:"ip_info,omitempty"`
	UserAgent    string        `json:"user_agent"`
	Browser      string        `json:"browser"`
	OS           string        `gorm:"column:os" json:"os"`
	DeviceType   string        `json:"device_type"`
	TotalVisits  int           `gorm:"default:1" json:"total_visits"`
	FirstVisitAt time.Time     `json:"first_visit_at"`
	LastVisitAt  time.Time     `gorm:"index" json:"last_visit_at"`
	CreatedAt    time.Time     `json:"created_at"`
}

// PageView is one visit to a single page path within a session, bounded by
// enter/exit events. ExitedAt and DurationSeconds stay null until the exit
// event arrives; it may never arrive.
type PageView struct {
	ID              uint64     `gorm:"primaryKey" json:"id"`
	SessionID       uint       `gorm:"index;not null" json:"session_id"`
	PagePath        string     `gorm:"index;not null;size:500" json:"page_path"`
	PageURL         string     `json:"page_url"`
	Referer         string     `json:"referer"`
	EnteredAt       time.Time  `json:"entered_at"`
	ExitedAt        *time.Time `json:"exited_at"`
	DurationSeconds *int       `json:"duration_seconds"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}

// DailyStat holds running totals for one calendar date. TotalVisits and
// TotalPageViews are bumped by the tracker with single atomic updates; the
// remaining columns are recomputed by the dashboard queries.
type DailyStat struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Date               string    `gorm:"type:date;uniqueIndex;not null" json:"date"`
	TotalVisits        int64     `gorm:"default:0" json:"total_visits"`
	TotalPageViews     int64     `gorm:"default:0" json:"total_page_views"`
	UniqueVisitors     int64     `gorm:"default:0" json:"unique_visitors"`
	VPNVisits          int64     `gorm:"column:vpn_visits;default:0" json:"vpn_visits"`
	ProxyVisits        int64     `gorm:"default:0" json:"proxy_visits"`
	AvgSessionDuration float64   `gorm:"default:0" json:"avg_session_duration"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (VisitorSession) TableName() string {
	return "visitor_sessions"
}

func (PageView) TableName() string {
	return "page_views"
}

func (DailyStat) TableName() string {
	return "daily_stats"
}
