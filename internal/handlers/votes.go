package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-community/backend/internal/models"
	"github.com/emilythestrangee/qa-community/backend/internal/voting"
)

type VoteHandler struct {
	votes *voting.Service
}

func NewVoteHandler(votes *voting.Service) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// cast applies the vote and answers with {success, message} on every path.
// Counts are not returned; clients re-derive them from the transition or re-fetch.
func (h *VoteHandler) cast(c *gin.Context, tt models.TargetType, targetID int, rawVote string) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.VoteResponse{Message: userMessage(models.ErrUnauthorized)})
		return
	}

	voteType, err := models.ParseVoteType(rawVote)
	if err != nil {
		c.JSON(statusFor(err), models.VoteResponse{Message: userMessage(err)})
		return
	}

	res, err := h.votes.ApplyVote(c.Request.Context(), voterID, tt, targetID, voteType)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.JSON(statusFor(err), models.VoteResponse{Message: userMessage(err)})
		return
	}

	c.JSON(http.StatusOK, models.VoteResponse{Success: true, Message: res.Message()})
}

// Vote handles POST /api/votes with an explicit target
func (h *VoteHandler) Vote(c *gin.Context) {
	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.VoteResponse{Message: err.Error()})
		return
	}

	tt, err := models.ParseTargetType(input.TargetType)
	if err != nil {
		c.JSON(statusFor(err), models.VoteResponse{Message: userMessage(err)})
		return
	}
	h.cast(c, tt, input.TargetID, input.VoteType)
}

type voteBody struct {
	VoteType string `json:"vote_type" binding:"required"`
}

// VoteQuestion votes on the question named in the path
func (h *VoteHandler) VoteQuestion(c *gin.Context) {
	h.voteOn(c, models.TargetQuestion, "id")
}

// VoteAnswer votes on the answer named in the path
func (h *VoteHandler) VoteAnswer(c *gin.Context) {
	h.voteOn(c, models.TargetAnswer, "answerId")
}

func (h *VoteHandler) voteOn(c *gin.Context, tt models.TargetType, param string) {
	var input voteBody
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.VoteResponse{Message: userMessage(models.ErrInvalidVoteType)})
		return
	}
	targetID, err := paramID(c, param)
	if err != nil {
		c.JSON(statusFor(err), models.VoteResponse{Message: userMessage(err)})
		return
	}
	h.cast(c, tt, targetID, input.VoteType)
}

// GetVote returns the caller's current vote on a target and the target's counts,
// the authoritative values a client reconciles its optimistic display against.
func (h *VoteHandler) GetVote(c *gin.Context) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	tt, err := models.ParseTargetType(c.Param("target_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	targetID, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	state, counts, err := h.votes.Snapshot(c.Request.Context(), voterID, tt, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target_type": tt,
		"target_id":   targetID,
		"vote":        state,
		"counts":      counts,
	})
}
