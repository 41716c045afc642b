package models

import (
	"fmt"
	"strings"
	"time"
)

type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// ParseVoteType accepts "upvote"/"downvote" and the legacy numeric forms "1"/"-1".
func ParseVoteType(s string) (VoteType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upvote", "up", "1":
		return Upvote, nil
	case "downvote", "down", "-1":
		return Downvote, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVoteType, s)
}

func (v VoteType) Valid() bool {
	return v == Upvote || v == Downvote
}

type TargetType string

const (
	TargetQuestion TargetType = "question"
	TargetAnswer   TargetType = "answer"
)

func ParseTargetType(s string) (TargetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "question", "questions":
		return TargetQuestion, nil
	case "answer", "answers":
		return TargetAnswer, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTargetType, s)
}

func (t TargetType) Valid() bool {
	return t == TargetQuestion || t == TargetAnswer
}

// Vote is the current vote of one user on one question or answer.
// A retracted vote has no row.
type Vote struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	UserID     int        `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:1" json:"user_id"`
	TargetType TargetType `gorm:"size:16;not null;uniqueIndex:idx_votes_voter_target,priority:2;index:idx_votes_target,priority:1" json:"target_type"`
	TargetID   int        `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:3;index:idx_votes_target,priority:2" json:"target_id"`
	VoteType   VoteType   `gorm:"size:16;not null" json:"vote_type"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type VoteRequest struct {
	TargetID   int    `json:"target_id" binding:"required,min=1"`
	TargetType string `json:"target_type" binding:"required"`
	VoteType   string `json:"vote_type" binding:"required"`
}

// VoteResponse is intentionally count-free; clients re-fetch or re-derive.
type VoteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
