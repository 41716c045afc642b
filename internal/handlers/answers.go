package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-community/backend/internal/listing"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
	"github.com/emilythestrangee/qa-community/backend/internal/qa"
)

type AnswerHandler struct {
	content   *qa.Service
	projector *listing.Projector
}

func NewAnswerHandler(content *qa.Service, projector *listing.Projector) *AnswerHandler {
	return &AnswerHandler{content: content, projector: projector}
}

// GetAnswers returns one page of a question's answers in the Q&A envelope
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	// an unknown question is a 404, not an empty page
	if _, err := h.content.GetQuestion(c.Request.Context(), questionID); err != nil {
		respondError(c, err)
		return
	}

	page, err := h.projector.Answers(c.Request.Context(), questionID, listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing.ToQAEnvelope(page))
}

// CreateAnswer answers a question
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	questionID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	a, err := h.content.CreateAnswer(c.Request.Context(), authorID, questionID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// UpdateAnswer updates an answer (owner only)
func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	answerID, err := paramID(c, "answerId")
	if err != nil {
		respondError(c, err)
		return
	}

	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.content.UpdateAnswer(c.Request.Context(), authorID, answerID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAnswer deletes an answer and its votes (owner only)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	answerID, err := paramID(c, "answerId")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.content.DeleteAnswer(c.Request.Context(), authorID, answerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}

// AcceptAnswer toggles acceptance of an answer (question author only)
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	answerID, err := paramID(c, "answerId")
	if err != nil {
		respondError(c, err)
		return
	}

	a, err := h.content.ToggleAccepted(c.Request.Context(), userID, answerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
