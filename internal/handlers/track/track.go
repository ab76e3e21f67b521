package track

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"

	"sitepulse/internal/models/sptrack"
	"sitepulse/internal/spmiddleware"
)

// Handler serves the public beacon endpoint the frontend snippet posts to.
type Handler struct {
	tracker *sptrack.Tracker
	limiter *limiter.Limiter
}

func New(tracker *sptrack.Tracker, lim *limiter.Limiter) *Handler {
	return &Handler{tracker: tracker, limiter: lim}
}

type visitRequest struct {
	SessionID  string `json:"sessionId"`
	PageURL    string `json:"pageUrl"`
	PagePath   string `json:"pagePath"`
	Referer    string `json:"referer"`
	UserAgent  string `json:"userAgent"`
	Action     string `json:"action"`
	PageViewID uint64 `json:"pageViewId"`
	Duration   int    `json:"duration"`
}

// Track handles POST /api/track for both enter and exit events.
func (h *Handler) Track(c *gin.Context) {
	clientIP := spmiddleware.ClientIP(c)

	limiterCtx, err := h.limiter.Get(c.Request.Context(), clientIP)
	if err != nil {
		log.Error().Err(err).Msg("rate limiter store error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if limiterCtx.Reached {
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	var req visitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.SessionID == "" || len(req.SessionID) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	if req.PagePath == "" || len(req.PagePath) > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page path"})
		return
	}

	// An exit event only patches the page view it references.
	if req.Action == "exit" && req.PageViewID != 0 {
		h.tracker.RecordExit(c.Request.Context(), req.PageViewID, req.Duration)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	visit := sptrack.Visit{
		SessionID: req.SessionID,
		PageURL:   req.PageURL,
		PagePath:  req.PagePath,
		Referer:   req.Referer,
		UserAgent: req.UserAgent,
	}

	pageViewID, err := h.tracker.RecordEnter(c.Request.Context(), visit, clientIP)
	if err != nil {
		log.Error().Err(err).Str("session", req.SessionID).Msg("enter event failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "pageViewId": pageViewID})
}
