package handlers

import (
	"errors"
	"net/http"

	"survey-service/internal/service"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP statuses. Validation problems and
// admission rejections are expected outcomes, anything else is a 500.
func writeError(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "This participant identity has already been used"})
	case errors.Is(err, service.ErrQuotaFull):
		c.JSON(http.StatusConflict, gin.H{"error": "Region quota full"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, service.ErrSessionTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "Session is already finished"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
