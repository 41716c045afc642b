package voting

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qa-community/backend/internal/database"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

// Ledger is the authoritative store of current votes: at most one row per
// (voter, target type, target). Rows are only written by Service.ApplyVote.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// State returns the voter's current vote on a target.
func (l *Ledger) State(ctx context.Context, voterID int, tt models.TargetType, targetID int) (State, error) {
	vote, err := findVote(l.db.WithContext(ctx), voterID, tt, targetID)
	if err != nil {
		return StateNone, err
	}
	if vote == nil {
		return StateNone, nil
	}
	return StateOf(vote.VoteType), nil
}

// Tally counts a target's votes straight from the ledger.
func (l *Ledger) Tally(ctx context.Context, tt models.TargetType, targetID int) (Counts, error) {
	return tally(l.db.WithContext(ctx), tt, targetID)
}

func tally(db *gorm.DB, tt models.TargetType, targetID int) (Counts, error) {
	var upvotes, downvotes int64
	base := func() *gorm.DB {
		return db.Model(&models.Vote{}).Where("target_type = ? AND target_id = ?", tt, targetID)
	}
	if err := base().Where("vote_type = ?", models.Upvote).Count(&upvotes).Error; err != nil {
		return Counts{}, fmt.Errorf("count upvotes: %w", err)
	}
	if err := base().Where("vote_type = ?", models.Downvote).Count(&downvotes).Error; err != nil {
		return Counts{}, fmt.Errorf("count downvotes: %w", err)
	}
	return Counts{Upvotes: int(upvotes), Downvotes: int(downvotes)}, nil
}

func findVote(tx *gorm.DB, voterID int, tt models.TargetType, targetID int) (*models.Vote, error) {
	q := database.Locked(tx).Where("user_id = ? AND target_type = ? AND target_id = ?", voterID, tt, targetID)

	var vote models.Vote
	err := q.First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load vote: %w", err)
	}
	return &vote, nil
}

// writeVote makes the ledger row for (voter, target) match t.To.
func writeVote(tx *gorm.DB, existing *models.Vote, voterID int, tt models.TargetType, targetID int, t Transition) error {
	voteType, keep := t.To.VoteType()

	switch {
	case existing == nil && keep:
		vote := models.Vote{UserID: voterID, TargetType: tt, TargetID: targetID, VoteType: voteType}
		if err := tx.Create(&vote).Error; err != nil {
			return fmt.Errorf("create vote: %w", err)
		}
	case existing != nil && !keep:
		if err := tx.Delete(existing).Error; err != nil {
			return fmt.Errorf("delete vote: %w", err)
		}
	case existing != nil:
		if err := tx.Model(existing).Update("vote_type", voteType).Error; err != nil {
			return fmt.Errorf("update vote: %w", err)
		}
	}
	return nil
}

// DeleteVotes removes every vote on the given targets. Used when content is deleted.
func DeleteVotes(tx *gorm.DB, tt models.TargetType, targetIDs ...int) error {
	if len(targetIDs) == 0 {
		return nil
	}
	err := tx.Where("target_type = ? AND target_id IN ?", tt, targetIDs).Delete(&models.Vote{}).Error
	if err != nil {
		return fmt.Errorf("delete votes: %w", err)
	}
	return nil
}
