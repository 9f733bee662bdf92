package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vigil-ops/vigil-backend-go/pkg/utils"
)

// StartMonitoring starts the engine's periodic tasks; idempotent
func (h *Handlers) StartMonitoring(c *gin.Context) {
	h.engine.StartMonitoring()
	utils.SendSuccess(c, gin.H{"running": true})
}

// StopMonitoring stops the engine's periodic tasks; idempotent
func (h *Handlers) StopMonitoring(c *gin.Context) {
	h.engine.StopMonitoring()
	utils.SendSuccess(c, gin.H{"running": false})
}

// IngestMetricsRequest carries externally pushed metric values keyed by
// dotted path
type IngestMetricsRequest struct {
	Values map[string]float64 `json:"values" binding:"required"`
}

// IngestMetrics updates the platform metrics provider with values from
// an external collaborator
func (h *Handlers) IngestMetrics(c *gin.Context) {
	var req IngestMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	h.platform.SetAll(req.Values)
	utils.SendSuccess(c, gin.H{"accepted": len(req.Values)})
}
