// Package reputation derives per-user reputation and content counts.
//
// reputation = 10 × upvotes on the user's answers
//            −  2 × downvotes on the user's answers
//            + 15 × accepted answers
//
// Votes on questions do not contribute. The value is cached in user_stats and kept
// current by marginal adjustments inside the transaction that changes the ledger;
// Compute recomputes it from the ledger and must always agree with the cache.
package reputation

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/qa-community/backend/internal/database"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

const (
	UpvoteWeight    = 10
	DownvotePenalty = 2
	AcceptedBonus   = 15
)

// ForVotes returns the reputation an author gains when a target's counters move by
// upvotes/downvotes. Only answers count.
func ForVotes(targetType models.TargetType, upvotes, downvotes int) int {
	if targetType != models.TargetAnswer {
		return 0
	}
	return UpvoteWeight*upvotes - DownvotePenalty*downvotes
}

// ForAnswer is the whole contribution of one answer to its author's reputation.
func ForAnswer(a models.Answer) int {
	rep := ForVotes(models.TargetAnswer, a.UpvoteCount, a.DownvoteCount)
	if a.IsAccepted {
		rep += AcceptedBonus
	}
	return rep
}

// Delta is a marginal change to a user's cached stats.
type Delta struct {
	Questions  int
	Answers    int
	Reputation int
}

func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Adjust applies d to the cached stats of userID. Call it with the transaction that
// made the change so the cache commits or rolls back together with it.
func Adjust(tx *gorm.DB, userID int, d Delta) error {
	if d.IsZero() {
		return nil
	}

	stats := models.UserStats{
		UserID:        userID,
		QuestionCount: d.Questions,
		AnswerCount:   d.Answers,
		Reputation:    d.Reputation,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"question_count": gorm.Expr("user_stats.question_count + ?", d.Questions),
			"answer_count":   gorm.Expr("user_stats.answer_count + ?", d.Answers),
			"reputation":     gorm.Expr("user_stats.reputation + ?", d.Reputation),
			"updated_at":     tx.NowFunc(),
		}),
	}).Create(&stats).Error
	if err != nil {
		return fmt.Errorf("adjust stats for user %d: %w", userID, err)
	}
	return nil
}

type Calculator struct {
	db *gorm.DB
}

func NewCalculator(db *gorm.DB) *Calculator {
	return &Calculator{db: db}
}

// Cached returns the eagerly maintained stats. Users without activity get zero stats.
func (c *Calculator) Cached(ctx context.Context, userID int) (models.UserStats, error) {
	var stats models.UserStats
	res := c.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&stats)
	if res.Error != nil {
		return models.UserStats{}, fmt.Errorf("load stats for user %d: %w", userID, res.Error)
	}
	stats.UserID = userID
	return stats, nil
}

// Compute derives the stats of userID from content tables and the vote ledger.
func (c *Calculator) Compute(ctx context.Context, userID int) (models.UserStats, error) {
	return compute(c.db.WithContext(ctx), userID)
}

func compute(db *gorm.DB, userID int) (models.UserStats, error) {
	stats := models.UserStats{UserID: userID}

	var questions, answers, accepted int64
	if err := db.Model(&models.Question{}).Where("author_id = ?", userID).Count(&questions).Error; err != nil {
		return stats, fmt.Errorf("count questions: %w", err)
	}
	if err := db.Model(&models.Answer{}).Where("author_id = ?", userID).Count(&answers).Error; err != nil {
		return stats, fmt.Errorf("count answers: %w", err)
	}
	if err := db.Model(&models.Answer{}).Where("author_id = ? AND is_accepted = ?", userID, true).Count(&accepted).Error; err != nil {
		return stats, fmt.Errorf("count accepted answers: %w", err)
	}

	var tally struct {
		Up   int64
		Down int64
	}
	err := db.Table("votes").
		Select("COALESCE(SUM(CASE WHEN votes.vote_type = ? THEN 1 ELSE 0 END), 0) AS up, "+
			"COALESCE(SUM(CASE WHEN votes.vote_type = ? THEN 1 ELSE 0 END), 0) AS down",
			models.Upvote, models.Downvote).
		Joins("JOIN answers ON answers.id = votes.target_id AND votes.target_type = ?", models.TargetAnswer).
		Where("answers.author_id = ? AND answers.deleted_at IS NULL", userID).
		Scan(&tally).Error
	if err != nil {
		return stats, fmt.Errorf("tally votes received: %w", err)
	}

	stats.QuestionCount = int(questions)
	stats.AnswerCount = int(answers)
	stats.Reputation = ForVotes(models.TargetAnswer, int(tally.Up), int(tally.Down)) + AcceptedBonus*int(accepted)
	return stats, nil
}

// Rebuild overwrites the cached stats of userID with Compute.
//
// The stats row stays locked from before the ledger is read until the new values
// are stored, so a concurrent vote either lands in the recount or adjusts the
// rebuilt row after it commits.
func (c *Calculator) Rebuild(ctx context.Context, userID int) (models.UserStats, error) {
	var stats models.UserStats
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.UserStats{UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("seed stats for user %d: %w", userID, err)
		}
		if err := database.Locked(tx).Where("user_id = ?", userID).First(&models.UserStats{}).Error; err != nil {
			return fmt.Errorf("lock stats for user %d: %w", userID, err)
		}

		var err error
		stats, err = compute(tx, userID)
		if err != nil {
			return err
		}

		stats.UpdatedAt = tx.NowFunc()
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"question_count", "answer_count", "reputation", "updated_at"}),
		}).Create(&stats).Error
		if err != nil {
			return fmt.Errorf("store stats for user %d: %w", userID, err)
		}
		return nil
	})
	return stats, database.WrapConflict(err)
}

// RebuildAll rebuilds every user's stats and returns how many were rewritten.
func (c *Calculator) RebuildAll(ctx context.Context) (int, error) {
	var ids []int
	if err := c.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	for i, id := range ids {
		if _, err := c.Rebuild(ctx, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}
