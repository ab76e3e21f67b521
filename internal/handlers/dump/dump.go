package dump

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sitepulse/internal/models/spdump"
)

// Handler serves the database backup endpoint of the admin panel.
type Handler struct {
	generator *spdump.Generator
}

func New(generator *spdump.Generator) *Handler {
	return &Handler{generator: generator}
}

// Tables handles GET /admin/api/dump/tables.
func (h *Handler) Tables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tables": h.generator.SortedTables()})
}

// Generate handles GET /admin/api/dump. With ?download=1 the dump comes
// back as an attachment instead of JSON.
func (h *Handler) Generate(c *gin.Context) {
	sql, err := h.generator.Generate()
	if err != nil {
		log.Error().Err(err).Msg("dump generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "dump generation failed"})
		return
	}

	if c.Query("download") == "1" {
		filename := fmt.Sprintf("sitepulse-dump-%s.sql", time.Now().Format("2006-01-02-150405"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Data(http.StatusOK, "application/sql; charset=utf-8", []byte(sql))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "dump": sql})
}
