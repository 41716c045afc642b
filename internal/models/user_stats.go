package models

import "time"

// UserStats is derived from questions, answers and the vote ledger.
// Users never write it directly.
type UserStats struct {
	UserID        int       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	QuestionCount int       `gorm:"not null;default:0" json:"question_count"`
	AnswerCount   int       `gorm:"not null;default:0" json:"answer_count"`
	Reputation    int       `gorm:"not null;default:0" json:"reputation"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
