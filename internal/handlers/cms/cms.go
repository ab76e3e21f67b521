package cms

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"sitepulse/internal/models/spcms"
)

// Handler serves the public content API and the admin CRUD API.
type Handler struct {
	cms *spcms.CMS
}

func New(cms *spcms.CMS) *Handler {
	return &Handler{cms: cms}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// lang resolves the requested language, defaulting to Ukrainian.
func lang(c *gin.Context) string {
	l := c.Query("lang")
	if !spcms.IsSupportedLanguage(l) {
		return "uk"
	}
	return l
}

// ---- public ----

// GetPage handles GET /api/pages/:slug?lang=uk.
func (h *Handler) GetPage(c *gin.Context) {
	page, err := h.cms.GetPage(c.Request.Context(), c.Param("slug"), lang(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
			return
		}
		log.Error().Err(err).Str("slug", c.Param("slug")).Msg("page load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListServices handles GET /api/services?lang=uk.
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.cms.ListServices(c.Request.Context(), lang(c))
	if err != nil {
		log.Error().Err(err).Msg("services load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, services)
}

// GetService handles GET /api/services/:slug?lang=uk.
func (h *Handler) GetService(c *gin.Context) {
	service, err := h.cms.GetService(c.Request.Context(), c.Param("slug"), lang(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		log.Error().Err(err).Str("slug", c.Param("slug")).Msg("service load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, service)
}

// ---- admin ----

func (h *Handler) AdminListPages(c *gin.Context) {
	pages, err := h.cms.ListPages(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("admin page list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, pages)
}

func (h *Handler) AdminCreatePage(c *gin.Context) {
	var page spcms.Page
	if err := c.ShouldBindJSON(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.cms.CreatePage(c.Request.Context(), &page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, page)
}

func (h *Handler) AdminUpdatePage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var page spcms.Page
	if err := c.ShouldBindJSON(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	page.ID = id
	if err := h.cms.UpdatePage(c.Request.Context(), &page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) AdminDeletePage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.cms.DeletePage(c.Request.Context(), id); err != nil {
		log.Error().Err(err).Uint("page", id).Msg("page delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) AdminUpsertTranslation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var tr spcms.PageTranslation
	if err := c.ShouldBindJSON(&tr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	tr.PageID = id
	if err := h.cms.UpsertPageTranslation(c.Request.Context(), &tr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tr)
}

func (h *Handler) AdminCreateBlock(c *gin.Context) {
	var block spcms.ContentBlock
	if err := c.ShouldBindJSON(&block); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.cms.CreateBlock(c.Request.Context(), &block); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, block)
}

func (h *Handler) AdminUpdateBlock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var block spcms.ContentBlock
	if err := c.ShouldBindJSON(&block); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	block.ID = id
	if err := h.cms.UpdateBlock(c.Request.Context(), &block); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, block)
}

func (h *Handler) AdminDeleteBlock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.cms.DeleteBlock(c.Request.Context(), id); err != nil {
		log.Error().Err(err).Uint("block", id).Msg("block delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) AdminListServices(c *gin.Context) {
	services, err := h.cms.ListAllServices(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("admin service list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, services)
}

func (h *Handler) AdminCreateService(c *gin.Context) {
	var service spcms.Service
	if err := c.ShouldBindJSON(&service); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.cms.CreateService(c.Request.Context(), &service); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, service)
}

func (h *Handler) AdminUpdateService(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var service spcms.Service
	if err := c.ShouldBindJSON(&service); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	service.ID = id
	if err := h.cms.UpdateService(c.Request.Context(), &service); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, service)
}

func (h *Handler) AdminDeleteService(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.cms.DeleteService(c.Request.Context(), id); err != nil {
		log.Error().Err(err).Uint("service", id).Msg("service delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) AdminReorderServices(c *gin.Context) {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.cms.ReorderServices(c.Request.Context(), req.IDs); err != nil {
		log.Error().Err(err).Msg("service reorder failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
