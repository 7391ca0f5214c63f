package handlers

import (
	"context"
	"net/http"

	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type LearningHandler struct {
	Service *service.LearningService
}

func NewLearningHandler(s *service.LearningService) *LearningHandler {
	return &LearningHandler{Service: s}
}

// EnterLearningMode opens a Socratic episode for a struggling question.
func (h *LearningHandler) EnterLearningMode(c *gin.Context) {
	var req struct {
		QuestionID string `json:"question_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	state, err := h.Service.EnterLearningMode(context.Background(), c.Param("id"), req.QuestionID)
	if err != nil {
		respondError(c, err, "Failed to enter learning mode")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"learning_mode": state,
		"message":       "Learning mode started",
	})
}

// RespondCheckpoint handles one free-text response to the active checkpoint.
func (h *LearningHandler) RespondCheckpoint(c *gin.Context) {
	var req struct {
		QuestionID   string `json:"question_id" binding:"required"`
		CheckpointID string `json:"checkpoint_id"`
		Response     string `json:"response" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid response format",
			"details": err.Error(),
		})
		return
	}

	outcome, err := h.Service.RespondCheckpoint(context.Background(), c.Param("id"), req.QuestionID, req.CheckpointID, req.Response)
	if err != nil {
		respondError(c, err, "Failed to process checkpoint response")
		return
	}
	if outcome.EpisodeComplete {
		c.Set("episode_complete", true)
	}
	c.JSON(http.StatusOK, outcome)
}
