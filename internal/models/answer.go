package models

import (
	"time"

	"gorm.io/gorm"
)

type Answer struct {
	ID            int            `gorm:"primaryKey" json:"id"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	AuthorID      int            `gorm:"not null;index" json:"author_id"`
	Author        User           `gorm:"foreignKey:AuthorID" json:"author"`
	QuestionID    int            `gorm:"not null;index" json:"question_id"`
	UpvoteCount   int            `gorm:"not null;default:0" json:"upvote_count"`
	DownvoteCount int            `gorm:"not null;default:0" json:"downvote_count"`
	IsAccepted    bool           `gorm:"not null;default:false" json:"is_accepted"`
	AcceptedAt    *time.Time     `json:"accepted_at,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// NetVotes is upvotes minus downvotes.
func (a Answer) NetVotes() int {
	return a.UpvoteCount - a.DownvoteCount
}

type CreateAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}
