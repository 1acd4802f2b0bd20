package handler

import (
	"net/http"
	"time"

	"github.com/atmoslabs/weatherhub/internal/security"
	"github.com/gin-gonic/gin"
)

type SecurityHandler struct {
	gate *security.RateGate
}

func NewSecurityHandler(gate *security.RateGate) *SecurityHandler {
	return &SecurityHandler{gate: gate}
}

// Handles GET /admin/security/metrics
func (h *SecurityHandler) GetMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, h.gate.GetSecurityMetrics(ctx))
}

// Handles POST /admin/security/blocks
func (h *SecurityHandler) BlockClient(c *gin.Context) {
	var req struct {
		ClientID string `json:"client_id" binding:"required"`
		Minutes  int    `json:"minutes" binding:"required,min=1"`
		Reason   string `json:"reason" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	h.gate.BlockClient(ctx, req.ClientID, time.Duration(req.Minutes)*time.Minute, req.Reason)

	c.JSON(http.StatusOK, gin.H{
		"client_id": req.ClientID,
		"blocked":   h.gate.IsBlocked(ctx, req.ClientID),
	})
}

// Handles GET /admin/security/blocks/:clientID
func (h *SecurityHandler) GetBlockStatus(c *gin.Context) {
	clientID := c.Param("clientID")

	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"client_id": clientID,
		"blocked":   h.gate.IsBlocked(ctx, clientID),
	})
}

// Handles DELETE /admin/security/blocks/:clientID
func (h *SecurityHandler) UnblockClient(c *gin.Context) {
	clientID := c.Param("clientID")

	ctx := c.Request.Context()
	h.gate.UnblockClient(ctx, clientID)

	c.JSON(http.StatusOK, gin.H{
		"client_id": clientID,
		"blocked":   h.gate.IsBlocked(ctx, clientID),
	})
}
