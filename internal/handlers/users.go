package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/qa-community/backend/internal/listing"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
	"github.com/emilythestrangee/qa-community/backend/internal/reputation"
)

type UserHandler struct {
	db        *gorm.DB
	stats     *reputation.Calculator
	projector *listing.Projector
}

func NewUserHandler(db *gorm.DB, stats *reputation.Calculator, projector *listing.Projector) *UserHandler {
	return &UserHandler{db: db, stats: stats, projector: projector}
}

// GetUsers returns the member directory. Deactivated members are hidden.
func (h *UserHandler) GetUsers(c *gin.Context) {
	active := true
	h.listUsers(c, listing.UserFilter{Active: &active})
}

// AdminListUsers returns all members, optionally filtered by active flag and role
func (h *UserHandler) AdminListUsers(c *gin.Context) {
	var filter listing.UserFilter
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "active must be true or false"})
			return
		}
		filter.Active = &active
	}
	filter.Role = strings.TrimSpace(c.Query("role"))
	h.listUsers(c, filter)
}

func (h *UserHandler) listUsers(c *gin.Context, filter listing.UserFilter) {
	page, err := h.projector.Users(c.Request.Context(), listParams(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing.ToDirectoryEnvelope(page))
}

// GetUserProfile returns a user's profile with their stats and latest questions
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, err := paramID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	stats, err := h.stats.Cached(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Get user's latest questions
	var questions []models.Question
	if err := h.db.Where("author_id = ?", user.ID).
		Order("created_at desc, id asc").Limit(10).
		Find(&questions).Error; err != nil {
		respondError(c, err)
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"bio":        user.Bio,
			"avatar":     user.Avatar,
			"role":       user.Role,
			"created_at": user.CreatedAt,
		},
		"stats":     stats,
		"questions": questions,
	})
}

// UpdateUserProfile updates the caller's own bio and avatar
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	userID, err := paramID(c, "id")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	authUserID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if authUserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var input struct {
		Bio    string `json:"bio"`
		Avatar string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]any{}
	if input.Bio != "" {
		updates["bio"] = input.Bio
		user.Bio = input.Bio
	}
	if input.Avatar != "" {
		updates["avatar"] = input.Avatar
		user.Avatar = input.Avatar
	}
	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"bio":      user.Bio,
		"avatar":   user.Avatar,
	})
}
