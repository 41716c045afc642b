package listing

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qa-community/backend/internal/metrics"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

type Projector struct {
	db     *gorm.DB
	limits Limits
}

func NewProjector(db *gorm.DB, limits Limits) *Projector {
	if limits.Default < 1 {
		limits.Default = 10
	}
	return &Projector{db: db, limits: limits}
}

// UserSummary is a member directory row.
type UserSummary struct {
	ID            int       `json:"id"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"is_active"`
	Reputation    int       `json:"reputation"`
	QuestionCount int       `json:"question_count"`
	AnswerCount   int       `json:"answer_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Active *bool
	Role   string
}

func order(s Sort, table string) string {
	switch s {
	case SortOldest:
		return table + ".created_at ASC, " + table + ".id ASC"
	case SortMostVoted:
		return "(" + table + ".upvote_count - " + table + ".downvote_count) DESC, " + table + ".id ASC"
	case SortLeastVoted:
		return "(" + table + ".upvote_count - " + table + ".downvote_count) ASC, " + table + ".id ASC"
	case SortMostAnswered:
		return table + ".answer_count DESC, " + table + ".id ASC"
	case SortReputation:
		return "COALESCE(user_stats.reputation, 0) DESC, " + table + ".id ASC"
	}
	return table + ".created_at DESC, " + table + ".id ASC"
}

func observe(listing string, start time.Time) {
	metrics.ListingDuration.WithLabelValues(listing).Observe(time.Since(start).Seconds())
}

// Questions lists live questions, searching titles.
func (p *Projector) Questions(ctx context.Context, params Params) (Page[models.Question], error) {
	defer observe("questions", time.Now())
	params = p.limits.normalize(params, SortNewest, SortOldest, SortMostVoted, SortLeastVoted, SortMostAnswered)

	q := p.db.WithContext(ctx).Model(&models.Question{})
	if params.Search != "" {
		q = q.Where(`LOWER(questions.title) LIKE ? ESCAPE '\'`, likePattern(params.Search))
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return Page[models.Question]{}, fmt.Errorf("count questions: %w", err)
	}

	var items []models.Question
	err := q.Preload("Author").
		Order(order(params.Sort, "questions")).
		Offset(offset(params)).Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return Page[models.Question]{}, fmt.Errorf("list questions: %w", err)
	}
	return newPage(items, params, total), nil
}

// Answers lists the live answers of one question, searching content.
func (p *Projector) Answers(ctx context.Context, questionID int, params Params) (Page[models.Answer], error) {
	defer observe("answers", time.Now())
	params = p.limits.normalize(params, SortNewest, SortOldest, SortMostVoted, SortLeastVoted)

	q := p.db.WithContext(ctx).Model(&models.Answer{}).Where("answers.question_id = ?", questionID)
	if params.Search != "" {
		q = q.Where(`LOWER(answers.content) LIKE ? ESCAPE '\'`, likePattern(params.Search))
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return Page[models.Answer]{}, fmt.Errorf("count answers: %w", err)
	}

	var items []models.Answer
	err := q.Preload("Author").
		Order(order(params.Sort, "answers")).
		Offset(offset(params)).Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return Page[models.Answer]{}, fmt.Errorf("list answers: %w", err)
	}
	return newPage(items, params, total), nil
}

// Users lists members with their cached stats, searching usernames. Filters are
// applied before pagination.
func (p *Projector) Users(ctx context.Context, params Params, filter UserFilter) (Page[UserSummary], error) {
	defer observe("users", time.Now())
	params = p.limits.normalize(params, SortNewest, SortOldest, SortReputation)

	q := p.db.WithContext(ctx).Model(&models.User{}).
		Joins("LEFT JOIN user_stats ON user_stats.user_id = users.id")
	if params.Search != "" {
		q = q.Where(`LOWER(users.username) LIKE ? ESCAPE '\'`, likePattern(params.Search))
	}
	if filter.Active != nil {
		q = q.Where("users.is_active = ?", *filter.Active)
	}
	if filter.Role != "" {
		q = q.Where("users.role = ?", filter.Role)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return Page[UserSummary]{}, fmt.Errorf("count users: %w", err)
	}

	var items []UserSummary
	err := q.Select("users.id, users.username, users.avatar, users.role, users.is_active, users.created_at, " +
		"COALESCE(user_stats.reputation, 0) AS reputation, " +
		"COALESCE(user_stats.question_count, 0) AS question_count, " +
		"COALESCE(user_stats.answer_count, 0) AS answer_count").
		Order(order(params.Sort, "users")).
		Offset(offset(params)).Limit(params.Limit).
		Scan(&items).Error
	if err != nil {
		return Page[UserSummary]{}, fmt.Errorf("list users: %w", err)
	}
	return newPage(items, params, total), nil
}
