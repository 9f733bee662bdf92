package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health returns service liveness plus engine and hub state
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"monitoring": h.engine.Running(),
		"websocket":  h.hub.Stats(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
