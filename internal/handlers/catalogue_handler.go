package handlers

import (
	"net/http"

	"survey-service/internal/questions"

	"github.com/gin-gonic/gin"
)

type CatalogueHandler struct {
	Tree *questions.Tree
}

func NewCatalogueHandler(tree *questions.Tree) *CatalogueHandler {
	return &CatalogueHandler{Tree: tree}
}

// Info reports the catalogue shape: per-level counts and the question total.
func (h *CatalogueHandler) Info(c *gin.Context) {
	categories, subcategories, topics, total := h.Tree.Counts()
	c.JSON(http.StatusOK, gin.H{
		"categories":     categories,
		"subcategories":  subcategories,
		"topics":         topics,
		"totalQuestions": total,
	})
}

// Reload re-reads the catalogue file. Question IDs stay stable because they
// are tree coordinates; sessions pick up the new total on their next fetch.
func (h *CatalogueHandler) Reload(c *gin.Context) {
	if err := h.Tree.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	_, _, _, total := h.Tree.Counts()
	c.JSON(http.StatusOK, gin.H{"message": "catalogue reloaded", "totalQuestions": total})
}
