package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qa-community/backend/internal/database"
	"github.com/emilythestrangee/qa-community/backend/internal/logging"
	"github.com/emilythestrangee/qa-community/backend/internal/metrics"
	"github.com/emilythestrangee/qa-community/backend/internal/models"
	"github.com/emilythestrangee/qa-community/backend/internal/platform/retry"
	"github.com/emilythestrangee/qa-community/backend/internal/reputation"
)

type Options struct {
	// AllowSelfVote lets authors vote on their own questions and answers.
	AllowSelfVote bool
	// RetryBackoff is the pause before the single retry of a conflicting write.
	RetryBackoff time.Duration
}

// Service applies vote requests. The ledger row, the target's counters and the
// author's cached reputation change in one transaction.
type Service struct {
	db       *gorm.DB
	opts     Options
	Ledger   *Ledger
	Counters *Counters
}

func NewService(db *gorm.DB, opts Options) *Service {
	return &Service{
		db:       db,
		opts:     opts,
		Ledger:   NewLedger(db),
		Counters: NewCounters(db),
	}
}

// Result describes a committed vote.
type Result struct {
	Transition
	TargetType models.TargetType
	TargetID   int
	AuthorID   int
	// Counts are the target's counters after the transition.
	Counts Counts
}

// ApplyVote casts requested on behalf of voterID. A conflicting write is retried
// once; every other error is returned unchanged and leaves no state behind.
func (s *Service) ApplyVote(ctx context.Context, voterID int, tt models.TargetType, targetID int, requested models.VoteType) (Result, error) {
	res, err := s.applyVote(ctx, voterID, tt, targetID, requested)
	if err != nil {
		metrics.VoteErrorsTotal.WithLabelValues(Reason(err)).Inc()
		return Result{}, err
	}

	metrics.VoteTransitionsTotal.WithLabelValues(string(tt), string(res.Action)).Inc()
	logging.WithUser(voterID).Debug("vote applied",
		"target_type", tt,
		"target_id", targetID,
		"from", res.From,
		"to", res.To,
	)
	return res, nil
}

func (s *Service) applyVote(ctx context.Context, voterID int, tt models.TargetType, targetID int, requested models.VoteType) (Result, error) {
	if voterID <= 0 {
		return Result{}, models.ErrUnauthorized
	}
	if !tt.Valid() {
		return Result{}, fmt.Errorf("%w: %q", models.ErrInvalidTargetType, tt)
	}
	if !requested.Valid() {
		return Result{}, fmt.Errorf("%w: %q", models.ErrInvalidVoteType, requested)
	}

	policy := retry.Policy{
		MaxAttempts:    2,
		InitialBackoff: s.opts.RetryBackoff,
		OnRetry: func(attempt int, err error, _ time.Duration) {
			metrics.VoteConflictRetriesTotal.Inc()
			logging.WithUser(voterID).Warn("retrying conflicting vote",
				"target_type", tt, "target_id", targetID, "attempt", attempt, "error", err)
		},
	}
	classify := func(err error) retry.Action {
		if errors.Is(err, models.ErrConflictingWrite) {
			return retry.Retry
		}
		return retry.Stop
	}

	return retry.Do(ctx, policy, classify, func() (Result, error) {
		return s.commit(ctx, voterID, tt, targetID, requested)
	})
}

func (s *Service) commit(ctx context.Context, voterID int, tt models.TargetType, targetID int, requested models.VoteType) (Result, error) {
	var res Result

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := loadTarget(tx, tt, targetID)
		if err != nil {
			return err
		}
		if target.AuthorID == voterID && !s.opts.AllowSelfVote {
			return models.ErrForbiddenSelfVote
		}

		existing, err := findVote(tx, voterID, tt, targetID)
		if err != nil {
			return err
		}
		from := StateNone
		if existing != nil {
			from = StateOf(existing.VoteType)
		}

		t, err := Next(from, requested)
		if err != nil {
			return err
		}

		if err := writeVote(tx, existing, voterID, tt, targetID, t); err != nil {
			return err
		}
		if err := applyDelta(tx, tt, targetID, t.Delta); err != nil {
			return err
		}

		rep := reputation.ForVotes(tt, t.Delta.Upvotes, t.Delta.Downvotes)
		if err := reputation.Adjust(tx, target.AuthorID, reputation.Delta{Reputation: rep}); err != nil {
			return err
		}

		res = Result{
			Transition: t,
			TargetType: tt,
			TargetID:   targetID,
			AuthorID:   target.AuthorID,
			Counts:     Counts{Upvotes: target.UpvoteCount, Downvotes: target.DownvoteCount}.Apply(t.Delta),
		}
		return nil
	})
	return res, database.WrapConflict(err)
}

// Snapshot reads a target's counts and the voter's current state together.
// The target row is locked like a vote would lock it, so no vote on the target
// can land between the two reads.
func (s *Service) Snapshot(ctx context.Context, voterID int, tt models.TargetType, targetID int) (State, Counts, error) {
	if !tt.Valid() {
		return StateNone, Counts{}, fmt.Errorf("%w: %q", models.ErrInvalidTargetType, tt)
	}

	var (
		state  State
		counts Counts
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := loadTarget(tx, tt, targetID)
		if err != nil {
			return err
		}
		vote, err := findVote(tx, voterID, tt, targetID)
		if err != nil {
			return err
		}
		counts = Counts{Upvotes: target.UpvoteCount, Downvotes: target.DownvoteCount}
		if vote != nil {
			state = StateOf(vote.VoteType)
		}
		return nil
	})
	if err != nil {
		return StateNone, Counts{}, database.WrapConflict(err)
	}
	return state, counts, nil
}

// Reason maps an ApplyVote error to a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInvalidVoteType):
		return "invalid_vote_type"
	case errors.Is(err, models.ErrInvalidTargetType):
		return "invalid_target_type"
	case errors.Is(err, models.ErrConflictingWrite):
		return "conflicting_write"
	case errors.Is(err, models.ErrForbiddenSelfVote):
		return "forbidden_self_vote"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "internal"
}
