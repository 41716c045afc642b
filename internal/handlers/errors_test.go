package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/emilythestrangee/qa-community/backend/internal/models"
	"github.com/emilythestrangee/qa-community/backend/internal/qa"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("answer 4: %w", models.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: %q", models.ErrInvalidVoteType, "x"), http.StatusBadRequest},
		{models.ErrInvalidTargetType, http.StatusBadRequest},
		{qa.ErrEmptyContent, http.StatusBadRequest},
		{fmt.Errorf("%w: busy", models.ErrConflictingWrite), http.StatusConflict},
		{models.ErrForbiddenSelfVote, http.StatusForbidden},
		{models.ErrNotOwner, http.StatusForbidden},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
		assert.NotEmpty(t, userMessage(tt.err))
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	respondError(c, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.Len(t, c.Errors, 1)
}

func TestExtractUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := extractUserID(c)
	assert.False(t, ok)

	c.Set("user_id", float64(12))
	id, ok := extractUserID(c)
	assert.True(t, ok)
	assert.Equal(t, 12, id)

	c.Set("user_id", "12")
	_, ok = extractUserID(c)
	assert.False(t, ok)
}

func TestParamID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "42"}, {Key: "bad", Value: "-1"}, {Key: "word", Value: "abc"}}

	id, err := paramID(c, "id")
	assert.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = paramID(c, "bad")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = paramID(c, "word")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
