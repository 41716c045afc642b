package models

import (
	"time"

	"gorm.io/gorm"
)

type Question struct {
	ID            int            `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:300;not null" json:"title"`
	Content       string         `gorm:"type:text" json:"content"`
	AuthorID      int            `gorm:"not null;index" json:"author_id"`
	Author        User           `gorm:"foreignKey:AuthorID" json:"author"`
	UpvoteCount   int            `gorm:"not null;default:0" json:"upvote_count"`
	DownvoteCount int            `gorm:"not null;default:0" json:"downvote_count"`
	AnswerCount   int            `gorm:"not null;default:0" json:"answer_count"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// NetVotes is upvotes minus downvotes.
func (q Question) NetVotes() int {
	return q.UpvoteCount - q.DownvoteCount
}

type CreateQuestionRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

type UpdateQuestionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
