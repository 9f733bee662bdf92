package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/pkg/errors"
	"github.com/vigil-ops/vigil-backend-go/pkg/utils"
)

// CreateAlertRequest is the payload for manual alert creation
type CreateAlertRequest struct {
	Type     string                `json:"type" binding:"required"`
	Severity string                `json:"severity" binding:"required"`
	Source   string                `json:"source" binding:"required"`
	Title    string                `json:"title" binding:"required"`
	Message  string                `json:"message"`
	Details  alerting.AlertDetails `json:"details"`
}

type actorRequest struct {
	By   string `json:"by" binding:"required"`
	Note string `json:"note"`
}

// GetActiveAlerts returns unresolved alerts sorted by severity
func (h *Handlers) GetActiveAlerts(c *gin.Context) {
	utils.SendSuccess(c, h.engine.Manager.GetActive())
}

// GetAlert returns a single alert by id
func (h *Handlers) GetAlert(c *gin.Context) {
	alert, err := h.engine.Manager.Get(c.Param("id"))
	if err != nil {
		utils.SendError(c, errors.GetStatusCode(err), err.Error())
		return
	}
	utils.SendSuccess(c, alert)
}

// CreateAlert creates an alert outside of rule evaluation
func (h *Handlers) CreateAlert(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.engine.Manager.Create(alerting.CreateRequest{
		Type:     req.Type,
		Severity: alerting.Severity(req.Severity),
		Source:   req.Source,
		Title:    req.Title,
		Message:  req.Message,
		Details:  req.Details,
	})
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"alert_id": id}})
}

// AcknowledgeAlert acknowledges an alert
func (h *Handlers) AcknowledgeAlert(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.Manager.Acknowledge(c.Param("id"), req.By); err != nil {
		utils.SendError(c, errors.GetStatusCode(err), err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{"status": "acknowledged"})
}

// ResolveAlert resolves an alert
func (h *Handlers) ResolveAlert(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.Manager.Resolve(c.Param("id"), req.By, req.Note); err != nil {
		utils.SendError(c, errors.GetStatusCode(err), err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{"status": "resolved"})
}

// SuppressAlert suppresses an alert via explicit operator action
func (h *Handlers) SuppressAlert(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.Manager.Suppress(c.Param("id"), req.By); err != nil {
		utils.SendError(c, errors.GetStatusCode(err), err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{"status": "suppressed"})
}

// GetAlertStats returns alert statistics
func (h *Handlers) GetAlertStats(c *gin.Context) {
	utils.SendSuccess(c, h.engine.Manager.Statistics())
}
