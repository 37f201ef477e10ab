package handlers

import (
	"context"
	"net/http"

	"survey-service/internal/models"
	"survey-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// CreateSession admits a participant: identity check, quota reservation,
// then the session row. 409 when the region is full.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	session, err := h.Service.CreateSession(context.Background(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetSession retrieves session state including progress counters.
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.Service.GetSession(context.Background(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CheckIdentity reports whether a participant identity was already used.
func (h *SessionHandler) CheckIdentity(c *gin.Context) {
	exists, err := h.Service.CheckIdentity(context.Background(), c.Param("participantId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// Resume returns the position of the first unanswered question so a
// returning participant continues where they left off.
func (h *SessionHandler) Resume(c *gin.Context) {
	pos, err := h.Service.Resume(context.Background(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"position":   pos,
		"questionId": pos.QuestionID(),
	})
}

// UpdatePosition persists the participant's cursor.
func (h *SessionHandler) UpdatePosition(c *gin.Context) {
	var pos models.QuestionPosition
	if err := c.ShouldBindJSON(&pos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	if err := h.Service.UpdatePosition(context.Background(), c.Param("id"), pos); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "position updated"})
}

// Complete finalizes a session with one of the accepted completion reasons
// and reports the total time taken.
func (h *SessionHandler) Complete(c *gin.Context) {
	var req struct {
		Reason string `json:"completionReason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	result, err := h.Service.Complete(context.Background(), c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// NextAttentionCheck asks whether a check is due at the session's current
// answered count; when due it returns the generated check.
func (h *SessionHandler) NextAttentionCheck(c *gin.Context) {
	check, due, err := h.Service.NextAttentionCheck(context.Background(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !due {
		c.JSON(http.StatusOK, gin.H{"due": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"due": true, "check": check})
}

// SubmitAttentionCheck validates a check answer. A failure terminates the
// session after flushing the interrupted draft answer.
func (h *SessionHandler) SubmitAttentionCheck(c *gin.Context) {
	var submission service.AttentionAnswer
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	passed, err := h.Service.SubmitAttentionCheck(context.Background(), c.Param("id"), submission)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("attentionPassed", passed)
	c.JSON(http.StatusOK, gin.H{"passed": passed})
}
