package stats

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sitepulse/internal/models/sptrack"
)

// Handler serves the admin analytics dashboard endpoints.
type Handler struct {
	tracker *sptrack.Tracker
}

func New(tracker *sptrack.Tracker) *Handler {
	return &Handler{tracker: tracker}
}

func intQuery(c *gin.Context, name string, def, max int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// Overview handles GET /admin/api/stats/overview?days=30.
func (h *Handler) Overview(c *gin.Context) {
	days := intQuery(c, "days", 30, 365)

	overview, err := h.tracker.GetOverview(c.Request.Context(), days)
	if err != nil {
		log.Error().Err(err).Msg("stats overview failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Daily handles GET /admin/api/stats/daily?days=30.
func (h *Handler) Daily(c *gin.Context) {
	days := intQuery(c, "days", 30, 365)

	series, err := h.tracker.GetDailySeries(c.Request.Context(), days)
	if err != nil {
		log.Error().Err(err).Msg("daily series failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, series)
}

// TopPages handles GET /admin/api/stats/pages?days=30&limit=20.
func (h *Handler) TopPages(c *gin.Context) {
	days := intQuery(c, "days", 30, 365)
	limit := intQuery(c, "limit", 20, 100)

	pages, err := h.tracker.GetTopPages(c.Request.Context(), days, limit)
	if err != nil {
		log.Error().Err(err).Msg("top pages failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, pages)
}

// TopReferers handles GET /admin/api/stats/referers?days=30&limit=20.
func (h *Handler) TopReferers(c *gin.Context) {
	days := intQuery(c, "days", 30, 365)
	limit := intQuery(c, "limit", 20, 100)

	referers, err := h.tracker.GetTopReferers(c.Request.Context(), days, limit)
	if err != nil {
		log.Error().Err(err).Msg("top referers failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, referers)
}

// Visitors handles GET /admin/api/stats/visitors?limit=50&offset=0.
func (h *Handler) Visitors(c *gin.Context) {
	limit := intQuery(c, "limit", 50, 200)
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	rows, err := h.tracker.GetVisitors(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("visitors query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Realtime handles GET /admin/api/stats/realtime.
func (h *Handler) Realtime(c *gin.Context) {
	data, err := h.tracker.GetRealtime(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("realtime stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, data)
}
