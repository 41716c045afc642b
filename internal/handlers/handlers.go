package handlers

import (
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/emilythestrangee/qa-community/backend/internal/config"
	"github.com/emilythestrangee/qa-community/backend/internal/listing"
	"github.com/emilythestrangee/qa-community/backend/internal/qa"
	"github.com/emilythestrangee/qa-community/backend/internal/reputation"
	"github.com/emilythestrangee/qa-community/backend/internal/voting"
)

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
	User     *UserHandler
	Vote     *VoteHandler
}

// NewHandler wires the domain services over db and creates all sub-handlers
func NewHandler(db *gorm.DB, cfg *config.Config, clock clockwork.Clock) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	content := qa.NewService(db)
	votes := voting.NewService(db, voting.Options{
		AllowSelfVote: cfg.AllowSelfVote,
		RetryBackoff:  10 * time.Millisecond,
	})
	projector := listing.NewProjector(db, listing.Limits{Default: cfg.PageSize, Max: cfg.MaxPageSize})
	stats := reputation.NewCalculator(db)

	return &Handler{
		Auth:     NewAuthHandler(db, stats, []byte(cfg.JWTSecret), cfg.TokenTTL, clock),
		Question: NewQuestionHandler(content, projector),
		Answer:   NewAnswerHandler(content, projector),
		User:     NewUserHandler(db, stats, projector),
		Vote:     NewVoteHandler(votes),
	}
}
