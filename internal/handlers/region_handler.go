package handlers

import (
	"context"
	"net/http"

	"survey-service/internal/service"

	"github.com/gin-gonic/gin"
)

type RegionHandler struct {
	Service *service.SessionService
}

func NewRegionHandler(s *service.SessionService) *RegionHandler {
	return &RegionHandler{Service: s}
}

// Reserve runs the admission pipeline and, when a slot is free, holds it for
// the participant so session creation consumes the same slot. A full region
// is a 200 with available=false, not an error.
func (h *RegionHandler) Reserve(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participantId" binding:"required"`
		Region        string `json:"region" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	outcome, err := h.Service.ReserveRegion(context.Background(), req.ParticipantID, req.Region)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("regionAvailable", outcome.Available)
	c.JSON(http.StatusOK, outcome)
}

// Release hands a reserved slot back when a participant abandons mid-survey.
func (h *RegionHandler) Release(c *gin.Context) {
	var req struct {
		Region string `json:"region" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	if err := h.Service.ReleaseRegion(context.Background(), req.Region); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "slot released"})
}

// Quotas exposes the per-region counters for monitoring.
func (h *RegionHandler) Quotas(c *gin.Context) {
	quotas, err := h.Service.QuotaSnapshot(context.Background())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotas)
}
