package contact

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sitepulse/internal/models/spcaptcha"
	"sitepulse/internal/models/spmail"
)

// Handler serves the public contact form and its captcha, plus the admin
// views over submissions and email settings.
type Handler struct {
	mailer     *spmail.Mailer
	captchas   *spcaptcha.Captchas
	production bool
}

func New(mailer *spmail.Mailer, captchas *spcaptcha.Captchas, production bool) *Handler {
	return &Handler{mailer: mailer, captchas: captchas, production: production}
}

// Captcha handles GET /api/captcha.
func (h *Handler) Captcha(c *gin.Context) {
	data, err := h.captchas.Generate(h.production)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

type submitRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Message       string `json:"message"`
	Language      string `json:"language"`
	CaptchaID     string `json:"captchaID"`
	CaptchaAnswer string `json:"captchaAnswer"`
}

// Submit handles POST /api/contact.
func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" || req.Email == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and message are required"})
		return
	}
	if !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
		return
	}
	if len(req.Message) > 5000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message too long"})
		return
	}

	if err := h.captchas.Verify(req.CaptchaID, req.CaptchaAnswer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := spmail.ContactSubmission{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    strings.TrimSpace(req.Phone),
		Message:  req.Message,
		Language: req.Language,
	}
	if err := h.mailer.Submit(c.Request.Context(), &sub); err != nil {
		log.Error().Err(err).Msg("contact submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- admin ----

// Submissions handles GET /admin/api/contact/submissions?limit=50&offset=0.
func (h *Handler) Submissions(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	rows, total, err := h.mailer.ListSubmissions(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("submission list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "submissions": rows})
}

// GetSettings handles GET /admin/api/contact/settings.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.mailer.GetSettings(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("email settings load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /admin/api/contact/settings.
func (h *Handler) UpdateSettings(c *gin.Context) {
	current, err := h.mailer.GetSettings(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("email settings load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var settings spmail.EmailSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	settings.ID = current.ID

	if err := h.mailer.UpdateSettings(c.Request.Context(), &settings); err != nil {
		log.Error().Err(err).Msg("email settings update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, settings)
}
