package database

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

// OpenTest returns a migrated in-memory sqlite database private to t.
func OpenTest(t *testing.T) *gorm.DB {
	t.Helper()
	return OpenTestWithClock(t, clockwork.NewRealClock())
}

// OpenTestWithClock is OpenTest with a controllable clock for created_at/updated_at.
func OpenTestWithClock(t *testing.T, clock clockwork.Clock) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(sqlite.Open(dsn), Options{Clock: clock, LogLevel: logger.Silent})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes transactions
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// CreateTestUser inserts an active member.
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     models.RoleMember,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestQuestion inserts a question without going through the lifecycle service.
func CreateTestQuestion(t *testing.T, db *gorm.DB, authorID int, title string) *models.Question {
	t.Helper()

	q := &models.Question{Title: title, Content: "content of " + title, AuthorID: authorID}
	require.NoError(t, db.Create(q).Error)
	return q
}

// CreateTestAnswer inserts an answer and keeps the question's answer_count in step.
func CreateTestAnswer(t *testing.T, db *gorm.DB, authorID, questionID int) *models.Answer {
	t.Helper()

	a := &models.Answer{Content: "an answer", AuthorID: authorID, QuestionID: questionID}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Model(&models.Question{}).Where("id = ?", questionID).
		UpdateColumn("answer_count", gorm.Expr("answer_count + 1")).Error)
	return a
}
