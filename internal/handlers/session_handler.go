package handlers

import (
	"context"
	"net/http"
	"time"

	"assessment-service/internal/models"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// CreateSession generates the question sequence and creates the session.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		EpisodeID     string           `json:"episode_id" binding:"required"`
		DocumentText  string           `json:"document_text"`
		Concepts      []models.Concept `json:"concepts" binding:"required"`
		QuestionCount int              `json:"question_count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	session, err := h.Service.CreateSession(context.Background(), req.EpisodeID, req.DocumentText, req.Concepts, req.QuestionCount)
	if err != nil {
		respondError(c, err, "Failed to create session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session":   session,
		"message":   "Session created successfully",
		"next_step": "Call /start to begin the quiz",
	})
}

// StartQuiz transitions the session into progress. Idempotent.
func (h *SessionHandler) StartQuiz(c *gin.Context) {
	session, err := h.Service.StartQuiz(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to start session")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"message": "Session started",
	})
}

// SubmitAnswer records one answer and returns the engine's verdict.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req struct {
		QuestionID       string  `json:"question_id" binding:"required"`
		SelectedOption   string  `json:"selected_option" binding:"required"`
		TimeSpentSeconds float64 `json:"time_spent_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid answer format",
			"details": err.Error(),
		})
		return
	}

	result, err := h.Service.RecordAttempt(context.Background(), c.Param("id"), req.QuestionID, req.SelectedOption, req.TimeSpentSeconds)
	if err != nil {
		respondError(c, err, "Failed to process answer")
		return
	}

	response := gin.H{
		"answer_processed": true,
		"is_correct":       result.IsCorrect,
		"question_status":  result.QuestionStatus,
		"score":            result.Score,
		"position":         result.Position,
		"has_previous":     result.HasPrevious,
		"has_next":         result.HasNext,
	}
	if result.Struggle != nil {
		response["struggle"] = result.Struggle
	}
	if result.Hint != nil {
		response["hint"] = result.Hint
	}
	if result.CorrectOption != "" {
		response["correct_option"] = result.CorrectOption
		response["explanation"] = result.Explanation
	}
	if result.SessionCompleted {
		response["session_completed"] = true
		response["completion_message"] = "Quiz completed! All questions answered"
		c.Set("session_completed", true)
	}

	c.JSON(http.StatusOK, response)
}

// GetHint resolves an explicitly requested hint level.
func (h *SessionHandler) GetHint(c *gin.Context) {
	var req struct {
		QuestionID string `json:"question_id" binding:"required"`
		Level      int    `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid hint request",
			"details": err.Error(),
		})
		return
	}

	resolved, err := h.Service.GetHint(context.Background(), c.Param("id"), req.QuestionID, req.Level)
	if err != nil {
		respondError(c, err, "Failed to resolve hint")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hint":        resolved,
		"question_id": req.QuestionID,
	})
}

// Navigate moves the display cursor between questions.
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req struct {
		Direction string `json:"direction" binding:"required"` // previous | next | jump
		Index     int    `json:"index"`                        // 1-based, jump only
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid navigation request",
			"details": err.Error(),
		})
		return
	}

	nav, err := h.Service.Navigate(context.Background(), c.Param("id"), req.Direction, req.Index)
	if err != nil {
		respondError(c, err, "Navigation rejected")
		return
	}
	c.JSON(http.StatusOK, nav)
}

// GetSession retrieves the full session document.
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.Service.GetSession(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Session not found")
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetProgress returns the per-question breakdown.
func (h *SessionHandler) GetProgress(c *gin.Context) {
	report, err := h.Service.GetProgress(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"progress":  report,
		"timestamp": time.Now(),
	})
}

// Abandon marks the session abandoned and archives its result.
func (h *SessionHandler) Abandon(c *gin.Context) {
	session, err := h.Service.Abandon(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to abandon session")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"message": "Session abandoned",
	})
}

// GetResult retrieves the archived result for a finished session.
func (h *SessionHandler) GetResult(c *gin.Context) {
	result, err := h.Service.GetResult(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Result not found")
		return
	}
	c.JSON(http.StatusOK, result)
}

// HealthCheck endpoint for liveness probes.
func (h *SessionHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "assessment-service",
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}
