// Package qa owns the question and answer lifecycle and the derived values that
// change with it: answer_count on questions, accepted answers, and the authors'
// cached stats.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qa-community/backend/internal/database"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
	"github.com/emilythestrangee/qa-community/backend/internal/reputation"
	"github.com/emilythestrangee/qa-community/backend/internal/voting"
)

var ErrEmptyContent = errors.New("content must not be empty")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// transaction runs fn atomically. Storage collisions come back as
// models.ErrConflictingWrite.
//
// Writers lock rows in one order: question, then its answers by id, then votes,
// then user stats. A vote locks only its target, so it fits the same order.
func (s *Service) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return database.WrapConflict(s.db.WithContext(ctx).Transaction(fn))
}

// lockQuestion reads a live question FOR UPDATE.
func lockQuestion(tx *gorm.DB, id int) (*models.Question, error) {
	var q models.Question
	if err := database.Locked(tx).First(&q, id).Error; err != nil {
		return nil, notFound("question", id, err)
	}
	return &q, nil
}

// lockAnswer locks an answer's question and then the answer itself, returning
// both as committed after the locks were taken.
func lockAnswer(tx *gorm.DB, id int) (*models.Answer, *models.Question, error) {
	var questionID int
	res := tx.Model(&models.Answer{}).Select("question_id").Where("id = ?", id).Limit(1).Scan(&questionID)
	if res.Error != nil {
		return nil, nil, notFound("answer", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil, notFound("answer", id, gorm.ErrRecordNotFound)
	}

	q, err := lockQuestion(tx, questionID)
	if err != nil {
		return nil, nil, err
	}

	var a models.Answer
	if err := database.Locked(tx).First(&a, id).Error; err != nil {
		return nil, nil, notFound("answer", id, err)
	}
	return &a, q, nil
}

func notFound(what string, id int, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}

// GetQuestion returns a live question with its author.
func (s *Service) GetQuestion(ctx context.Context, id int) (*models.Question, error) {
	var q models.Question
	if err := s.db.WithContext(ctx).Preload("Author").First(&q, id).Error; err != nil {
		return nil, notFound("question", id, err)
	}
	return &q, nil
}

// GetAnswer returns a live answer with its author.
func (s *Service) GetAnswer(ctx context.Context, id int) (*models.Answer, error) {
	var a models.Answer
	if err := s.db.WithContext(ctx).Preload("Author").First(&a, id).Error; err != nil {
		return nil, notFound("answer", id, err)
	}
	return &a, nil
}

func (s *Service) CreateQuestion(ctx context.Context, authorID int, title, content string) (*models.Question, error) {
	if authorID <= 0 {
		return nil, models.ErrUnauthorized
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyContent
	}

	q := &models.Question{Title: title, Content: content, AuthorID: authorID}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		return reputation.Adjust(tx, authorID, reputation.Delta{Questions: 1})
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *Service) UpdateQuestion(ctx context.Context, userID, id int, title, content string) (*models.Question, error) {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		q, err := lockQuestion(tx, id)
		if err != nil {
			return err
		}
		if q.AuthorID != userID {
			return models.ErrNotOwner
		}

		updates := map[string]any{}
		if t := strings.TrimSpace(title); t != "" {
			updates["title"] = t
		}
		if content != "" {
			updates["content"] = content
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(q).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuestion(ctx, id)
}

// DeleteQuestion soft-deletes a question together with its answers and removes
// every vote on them.
func (s *Service) DeleteQuestion(ctx context.Context, userID, id int) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		q, err := lockQuestion(tx, id)
		if err != nil {
			return err
		}
		if q.AuthorID != userID {
			return models.ErrNotOwner
		}

		var answers []models.Answer
		if err := database.Locked(tx).Where("question_id = ?", id).Order("id").Find(&answers).Error; err != nil {
			return fmt.Errorf("load answers: %w", err)
		}
		for i := range answers {
			if err := removeAnswer(tx, &answers[i]); err != nil {
				return err
			}
		}

		if err := voting.DeleteVotes(tx, models.TargetQuestion, id); err != nil {
			return err
		}
		if err := tx.Delete(q).Error; err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		return reputation.Adjust(tx, q.AuthorID, reputation.Delta{Questions: -1})
	})
}

func (s *Service) CreateAnswer(ctx context.Context, authorID, questionID int, content string) (*models.Answer, error) {
	if authorID <= 0 {
		return nil, models.ErrUnauthorized
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	a := &models.Answer{Content: content, AuthorID: authorID, QuestionID: questionID}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := lockQuestion(tx, questionID); err != nil {
			return err
		}
		if err := tx.Create(a).Error; err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		if err := tx.Model(&models.Question{}).Where("id = ?", questionID).
			UpdateColumn("answer_count", gorm.Expr("answer_count + 1")).Error; err != nil {
			return fmt.Errorf("bump answer count: %w", err)
		}
		return reputation.Adjust(tx, authorID, reputation.Delta{Answers: 1})
	})
	if err != nil {
		return nil, err
	}
	return s.GetAnswer(ctx, a.ID)
}

func (s *Service) UpdateAnswer(ctx context.Context, userID, id int, content string) (*models.Answer, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var a models.Answer
		if err := database.Locked(tx).First(&a, id).Error; err != nil {
			return notFound("answer", id, err)
		}
		if a.AuthorID != userID {
			return models.ErrNotOwner
		}
		return tx.Model(&a).Update("content", content).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetAnswer(ctx, id)
}

// DeleteAnswer soft-deletes an answer and its votes, decrementing the question's
// answer_count and withdrawing the answer's reputation from its author.
func (s *Service) DeleteAnswer(ctx context.Context, userID, id int) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		a, _, err := lockAnswer(tx, id)
		if err != nil {
			return err
		}
		if a.AuthorID != userID {
			return models.ErrNotOwner
		}
		return removeAnswer(tx, a)
	})
}

// removeAnswer expects a to be locked, so its counters and acceptance are the
// values the withdrawn reputation is computed from.
func removeAnswer(tx *gorm.DB, a *models.Answer) error {
	if err := voting.DeleteVotes(tx, models.TargetAnswer, a.ID); err != nil {
		return err
	}
	if err := tx.Delete(a).Error; err != nil {
		return fmt.Errorf("delete answer %d: %w", a.ID, err)
	}
	err := tx.Model(&models.Question{}).Where("id = ?", a.QuestionID).
		UpdateColumn("answer_count", gorm.Expr("CASE WHEN answer_count > 0 THEN answer_count - 1 ELSE 0 END")).Error
	if err != nil {
		return fmt.Errorf("drop answer count: %w", err)
	}
	return reputation.Adjust(tx, a.AuthorID, reputation.Delta{
		Answers:    -1,
		Reputation: -reputation.ForAnswer(*a),
	})
}

// ToggleAccepted lets the question's author accept an answer, or un-accept it when
// it is already accepted. A question has at most one accepted answer.
func (s *Service) ToggleAccepted(ctx context.Context, userID, answerID int) (*models.Answer, error) {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		// the question lock serializes every acceptance change on the question
		a, q, err := lockAnswer(tx, answerID)
		if err != nil {
			return err
		}
		if q.AuthorID != userID {
			return models.ErrNotOwner
		}

		if a.IsAccepted {
			return setAccepted(tx, a, false)
		}

		var previous []models.Answer
		if err := tx.Where("question_id = ? AND is_accepted = ?", q.ID, true).Order("id").Find(&previous).Error; err != nil {
			return fmt.Errorf("load accepted answers: %w", err)
		}
		for i := range previous {
			if err := setAccepted(tx, &previous[i], false); err != nil {
				return err
			}
		}
		return setAccepted(tx, a, true)
	})
	if err != nil {
		return nil, err
	}
	return s.GetAnswer(ctx, answerID)
}

func setAccepted(tx *gorm.DB, a *models.Answer, accepted bool) error {
	updates := map[string]any{"is_accepted": accepted, "accepted_at": nil}
	bonus := -reputation.AcceptedBonus
	if accepted {
		updates["accepted_at"] = tx.NowFunc()
		bonus = reputation.AcceptedBonus
	}

	if err := tx.Model(&models.Answer{}).Where("id = ?", a.ID).UpdateColumns(updates).Error; err != nil {
		return fmt.Errorf("set accepted on answer %d: %w", a.ID, err)
	}
	return reputation.Adjust(tx, a.AuthorID, reputation.Delta{Reputation: bonus})
}
