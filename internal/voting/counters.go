package voting

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qa-community/backend/internal/database"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

// Counters reads and repairs the denormalized upvote/downvote counts on questions
// and answers. Writes happen only through applyDelta inside a vote transaction.
type Counters struct {
	db *gorm.DB
}

func NewCounters(db *gorm.DB) *Counters {
	return &Counters{db: db}
}

func targetModel(tt models.TargetType) (any, error) {
	switch tt {
	case models.TargetQuestion:
		return &models.Question{}, nil
	case models.TargetAnswer:
		return &models.Answer{}, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrInvalidTargetType, tt)
}

type targetRow struct {
	AuthorID      int
	UpvoteCount   int
	DownvoteCount int
}

// loadTarget reads a live (not deleted) target, locking its row where supported so
// that concurrent votes on the same target serialize.
func loadTarget(tx *gorm.DB, tt models.TargetType, targetID int) (targetRow, error) {
	model, err := targetModel(tt)
	if err != nil {
		return targetRow{}, err
	}

	q := database.Locked(tx).Model(model).Select("author_id", "upvote_count", "downvote_count").Where("id = ?", targetID)

	var row targetRow
	res := q.Limit(1).Scan(&row)
	if res.Error != nil {
		return targetRow{}, fmt.Errorf("load %s %d: %w", tt, targetID, res.Error)
	}
	if res.RowsAffected == 0 {
		return targetRow{}, fmt.Errorf("%s %d: %w", tt, targetID, models.ErrNotFound)
	}
	return row, nil
}

// applyDelta moves a target's counters by d as an in-place SQL update, clamped at zero.
func applyDelta(tx *gorm.DB, tt models.TargetType, targetID int, d Delta) error {
	model, err := targetModel(tt)
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if d.Upvotes != 0 {
		updates["upvote_count"] = gorm.Expr("CASE WHEN upvote_count + ? < 0 THEN 0 ELSE upvote_count + ? END", d.Upvotes, d.Upvotes)
	}
	if d.Downvotes != 0 {
		updates["downvote_count"] = gorm.Expr("CASE WHEN downvote_count + ? < 0 THEN 0 ELSE downvote_count + ? END", d.Downvotes, d.Downvotes)
	}
	if len(updates) == 0 {
		return nil
	}

	res := tx.Model(model).Where("id = ?", targetID).UpdateColumns(updates)
	if res.Error != nil {
		return fmt.Errorf("update %s %d counters: %w", tt, targetID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", tt, targetID, models.ErrNotFound)
	}
	return nil
}

// Get returns the stored counts of a live target.
func (c *Counters) Get(ctx context.Context, tt models.TargetType, targetID int) (Counts, error) {
	row, err := loadTarget(c.db.WithContext(ctx), tt, targetID)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Upvotes: row.UpvoteCount, Downvotes: row.DownvoteCount}, nil
}

// Recount rewrites a target's counters from the ledger and returns the result.
func (c *Counters) Recount(ctx context.Context, tt models.TargetType, targetID int) (Counts, error) {
	model, err := targetModel(tt)
	if err != nil {
		return Counts{}, err
	}

	var counts Counts
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadTarget(tx, tt, targetID); err != nil {
			return err
		}
		tallied, err := tally(tx, tt, targetID)
		if err != nil {
			return err
		}
		counts = tallied
		return tx.Model(model).Where("id = ?", targetID).UpdateColumns(map[string]any{
			"upvote_count":   counts.Upvotes,
			"downvote_count": counts.Downvotes,
		}).Error
	})
	return counts, err
}

// RecountAll recounts every live question and answer and returns how many targets
// had drifted from the ledger.
func (c *Counters) RecountAll(ctx context.Context) (int, error) {
	drifted := 0
	for _, tt := range []models.TargetType{models.TargetQuestion, models.TargetAnswer} {
		model, _ := targetModel(tt)

		var ids []int
		if err := c.db.WithContext(ctx).Model(model).Order("id").Pluck("id", &ids).Error; err != nil {
			return drifted, fmt.Errorf("list %s ids: %w", tt, err)
		}

		for _, id := range ids {
			before, err := c.Get(ctx, tt, id)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					continue
				}
				return drifted, err
			}
			after, err := c.Recount(ctx, tt, id)
			if err != nil {
				return drifted, err
			}
			if before != after {
				drifted++
			}
		}
	}
	return drifted, nil
}
