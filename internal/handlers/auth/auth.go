package auth

import (
	"net/http"

	argon2 "github.com/andskur/argon2-hashing"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sitepulse/internal/spconfig"
	"sitepulse/internal/spmiddleware"
)

// Handler owns the admin login and logout endpoints.
type Handler struct {
	user spconfig.UserConfig
}

func New(user spconfig.UserConfig) *Handler {
	return &Handler{user: user}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /admin/login. Sits behind the login rate limiter.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := argon2.CompareHashAndPassword([]byte(h.user.Hash), []byte(req.Password))
	if err != nil || req.Username != h.user.Login {
		log.Warn().Str("user", req.Username).Str("ip", c.ClientIP()).Msg("login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := spmiddleware.SetUser(c, req.Username); err != nil {
		log.Error().Err(err).Msg("session save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	log.Info().Str("user", req.Username).Str("ip", c.ClientIP()).Msg("login succeeded")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout handles POST /admin/logout.
func (h *Handler) Logout(c *gin.Context) {
	if err := spmiddleware.ClearUser(c); err != nil {
		log.Error().Err(err).Msg("session clear failed")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
