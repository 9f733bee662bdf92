package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vigil-ops/vigil-backend-go/pkg/errors"
	"github.com/vigil-ops/vigil-backend-go/pkg/utils"
)

// GetRules returns all registered alert rules
func (h *Handlers) GetRules(c *gin.Context) {
	utils.SendSuccess(c, h.engine.Scheduler.Rules())
}

// EnableRule enables a rule
func (h *Handlers) EnableRule(c *gin.Context) {
	if err := h.engine.Scheduler.SetEnabled(c.Param("id"), true); err != nil {
		utils.SendError(c, errors.GetStatusCode(err), err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{"enabled": true})
}

// DisableRule disables a rule
func (h *Handlers) DisableRule(c *gin.Context) {
	if err := h.engine.Scheduler.SetEnabled(c.Param("id"), false); err != nil {
		utils.SendError(c, errors.GetStatusCode(err), err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{"enabled": false})
}
