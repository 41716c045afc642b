package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-community/backend/internal/logging"
	"github.com/emilythestrangee/qa-community/backend/internal/middleware"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
	"github.com/emilythestrangee/qa-community/backend/internal/qa"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidVoteType),
		errors.Is(err, models.ErrInvalidTargetType),
		errors.Is(err, qa.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflictingWrite):
		return http.StatusConflict
	case errors.Is(err, models.ErrForbiddenSelfVote),
		errors.Is(err, models.ErrNotOwner):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// userMessage is the text shown to clients for err.
func userMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return "Authentication required"
	case errors.Is(err, models.ErrNotFound):
		return "Not found"
	case errors.Is(err, models.ErrInvalidVoteType):
		return "Vote type must be upvote or downvote"
	case errors.Is(err, models.ErrInvalidTargetType):
		return "Target type must be question or answer"
	case errors.Is(err, qa.ErrEmptyContent):
		return "Content must not be empty"
	case errors.Is(err, models.ErrConflictingWrite):
		return "The vote conflicted with another update, please try again"
	case errors.Is(err, models.ErrForbiddenSelfVote):
		return "You cannot vote on your own content"
	case errors.Is(err, models.ErrNotOwner):
		return "You can only change your own content"
	}
	return "Internal server error"
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logging.WithError(err).Error("request failed", "path", c.Request.URL.Path)
	}
	c.JSON(status, gin.H{"error": userMessage(err)})
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// paramID reads a positive integer path parameter. Anything else cannot name a
// stored row and is reported as not found.
func paramID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, c.Param(name), models.ErrNotFound)
	}
	return id, nil
}
