package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kinotek/kinotek/internal/modules/imagemodule"
)

// StatusHandler reports storage and cache health
type StatusHandler struct {
	images *imagemodule.Store
}

// NewStatusHandler creates a status handler
func NewStatusHandler(images *imagemodule.Store) *StatusHandler {
	return &StatusHandler{images: images}
}

// Status returns asset counts, cache occupancy and disk usage
func (h *StatusHandler) Status(c *gin.Context) {
	stats, err := h.images.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"storage": stats,
	})
}
