package handlers

import (
	"context"
	"net/http"

	"survey-service/internal/models"
	"survey-service/internal/service"

	"github.com/gin-gonic/gin"
)

type ResponseHandler struct {
	Service *service.ResponseService
}

func NewResponseHandler(s *service.ResponseService) *ResponseHandler {
	return &ResponseHandler{Service: s}
}

// SaveResponse upserts one answer keyed by (session, question). 201 on first
// write, 200 on overwrite; quality findings ride along in the body.
func (h *ResponseHandler) SaveResponse(c *gin.Context) {
	var resp models.Response
	if err := c.ShouldBindJSON(&resp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	result, err := h.Service.Save(context.Background(), &resp)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// SaveBatch upserts several answers for one session in a single call.
func (h *ResponseHandler) SaveBatch(c *gin.Context) {
	var req struct {
		SessionID string            `json:"sessionId" binding:"required"`
		Responses []models.Response `json:"responses"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	created, err := h.Service.SaveBatch(context.Background(), req.SessionID, req.Responses)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created, "total": len(req.Responses)})
}

// ListResponses returns a session's answers sorted by catalogue position.
func (h *ResponseHandler) ListResponses(c *gin.Context) {
	responses, err := h.Service.List(context.Background(), c.Param("sessionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	if responses == nil {
		responses = []models.Response{}
	}
	c.JSON(http.StatusOK, responses)
}
