package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/services"
)

// PrivacyHandler exposes the redaction state and a manual full-screen
// override for operators.
type PrivacyHandler struct {
	container *services.ServiceContainer
}

func NewPrivacyHandler(container *services.ServiceContainer) *PrivacyHandler {
	return &PrivacyHandler{container: container}
}

type FullScreenRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *PrivacyHandler) Status(c *gin.Context) {
	engine := h.container.Engine
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"full_screen":   engine.FullScreen(),
		"window_title":  h.container.WindowMonitor.CurrentTitle(),
		"region_counts": engine.RegionCounts(),
	})
}

func (h *PrivacyHandler) SetFullScreen(c *gin.Context) {
	var req FullScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request body",
		})
		return
	}

	changed := h.container.Engine.SetFullScreen(req.Enabled)
	if changed {
		log.Info().Bool("enabled", req.Enabled).Msg("Full-screen blur toggled via API")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"full_screen": req.Enabled,
		"changed":     changed,
	})
}
