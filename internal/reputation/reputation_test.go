package reputation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/qa-community/backend/internal/database"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

func TestForVotes(t *testing.T) {
	assert.Equal(t, 10, ForVotes(models.TargetAnswer, 1, 0))
	assert.Equal(t, -10, ForVotes(models.TargetAnswer, -1, 0))
	assert.Equal(t, -2, ForVotes(models.TargetAnswer, 0, 1))
	assert.Equal(t, 2, ForVotes(models.TargetAnswer, 0, -1))
	assert.Equal(t, -12, ForVotes(models.TargetAnswer, -1, 1))
	assert.Zero(t, ForVotes(models.TargetQuestion, 5, 1))
}

func TestForAnswer(t *testing.T) {
	assert.Equal(t, 3*10-4*2, ForAnswer(models.Answer{UpvoteCount: 3, DownvoteCount: 4}))
	assert.Equal(t, 15-2, ForAnswer(models.Answer{DownvoteCount: 1, IsAccepted: true}))
}

func TestCached_NoActivity(t *testing.T) {
	db := database.OpenTest(t)
	u := database.CreateTestUser(t, db, "quiet")

	stats, err := NewCalculator(db).Cached(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{UserID: u.ID}, stats)
}

func TestAdjust_Accumulates(t *testing.T) {
	db := database.OpenTest(t)
	u := database.CreateTestUser(t, db, "busy")
	ctx := context.Background()

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return Adjust(tx, u.ID, Delta{Reputation: -2})
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return Adjust(tx, u.ID, Delta{Reputation: 10, Answers: 1, Questions: 2})
	}))
	require.NoError(t, Adjust(db, u.ID, Delta{}))

	stats, err := NewCalculator(db).Cached(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Reputation)
	assert.Equal(t, 1, stats.AnswerCount)
	assert.Equal(t, 2, stats.QuestionCount)
}

func TestAdjust_RolledBackWithTransaction(t *testing.T) {
	db := database.OpenTest(t)
	u := database.CreateTestUser(t, db, "rollback")

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := Adjust(tx, u.ID, Delta{Reputation: 10}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.ErrorIs(t, err, gorm.ErrInvalidTransaction)

	stats, err := NewCalculator(db).Cached(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Reputation)
}

func TestCompute_FromLedger(t *testing.T) {
	db := database.OpenTest(t)
	ctx := context.Background()

	author := database.CreateTestUser(t, db, "author")
	voter := database.CreateTestUser(t, db, "voter")
	q := database.CreateTestQuestion(t, db, author.ID, "q")
	a1 := database.CreateTestAnswer(t, db, author.ID, q.ID)
	a2 := database.CreateTestAnswer(t, db, author.ID, q.ID)
	gone := database.CreateTestAnswer(t, db, author.ID, q.ID)

	votes := []models.Vote{
		{UserID: voter.ID, TargetType: models.TargetAnswer, TargetID: a1.ID, VoteType: models.Upvote},
		{UserID: author.ID, TargetType: models.TargetAnswer, TargetID: a1.ID, VoteType: models.Upvote},
		{UserID: voter.ID, TargetType: models.TargetAnswer, TargetID: a2.ID, VoteType: models.Downvote},
		{UserID: voter.ID, TargetType: models.TargetQuestion, TargetID: q.ID, VoteType: models.Upvote},
		{UserID: voter.ID, TargetType: models.TargetAnswer, TargetID: gone.ID, VoteType: models.Upvote},
	}
	require.NoError(t, db.Create(&votes).Error)
	require.NoError(t, db.Model(a2).UpdateColumn("is_accepted", true).Error)
	require.NoError(t, db.Delete(gone).Error)

	stats, err := NewCalculator(db).Compute(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 2*10-2+15, stats.Reputation)
	assert.Equal(t, 1, stats.QuestionCount)
	assert.Equal(t, 2, stats.AnswerCount)

	rebuilt, err := NewCalculator(db).Rebuild(ctx, author.ID)
	require.NoError(t, err)
	cached, err := NewCalculator(db).Cached(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, rebuilt.Reputation, cached.Reputation)
}

func TestRebuild_SeedsAndOverwrites(t *testing.T) {
	db := database.OpenTest(t)
	ctx := context.Background()
	calc := NewCalculator(db)

	author := database.CreateTestUser(t, db, "author")
	quiet := database.CreateTestUser(t, db, "quiet")
	q := database.CreateTestQuestion(t, db, author.ID, "q")
	a := database.CreateTestAnswer(t, db, author.ID, q.ID)
	require.NoError(t, db.Model(a).UpdateColumn("is_accepted", true).Error)

	// no stats row yet
	stats, err := calc.Rebuild(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, AcceptedBonus, stats.Reputation)

	require.NoError(t, Adjust(db, author.ID, Delta{Reputation: 500, Answers: 3}))
	stats, err = calc.Rebuild(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, AcceptedBonus, stats.Reputation)
	assert.Equal(t, 1, stats.AnswerCount)

	cached, err := calc.Cached(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.Reputation, cached.Reputation)
	assert.Equal(t, 1, cached.QuestionCount)

	stats, err = calc.Rebuild(ctx, quiet.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Reputation)

	var rows int64
	require.NoError(t, db.Model(&models.UserStats{}).Count(&rows).Error)
	assert.EqualValues(t, 2, rows)
}

func TestRebuild_FailedStoreKeepsOldStats(t *testing.T) {
	db := database.OpenTest(t)
	ctx := context.Background()
	calc := NewCalculator(db)
	u := database.CreateTestUser(t, db, "drifted")
	require.NoError(t, Adjust(db, u.ID, Delta{Reputation: 42}))

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:conflict", func(tx *gorm.DB) {
		if tx.Statement.Table == "user_stats" {
			_ = tx.AddError(gorm.ErrDuplicatedKey)
		}
	}))

	_, err := calc.Rebuild(ctx, u.ID)
	require.ErrorIs(t, err, models.ErrConflictingWrite)

	cached, err := calc.Cached(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, cached.Reputation)
}
