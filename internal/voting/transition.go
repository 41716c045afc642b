// Package voting implements the vote ledger, the per-target counters and the
// transition engine that keeps them consistent.
//
// Each (voter, target) pair is a three-state machine:
//
//	none ──upvote──▶ upvoted ──upvote──▶ none
//	none ─downvote─▶ downvoted ─downvote─▶ none
//	upvoted ◀──────────────────────────▶ downvoted
//
// Counters only ever move by the deltas of that machine.
package voting

import (
	"fmt"

	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

type State uint8

const (
	StateNone State = iota
	StateUpvoted
	StateDownvoted
)

// StateOf maps a stored vote type to its state. Unknown values are treated as no vote.
func StateOf(v models.VoteType) State {
	switch v {
	case models.Upvote:
		return StateUpvoted
	case models.Downvote:
		return StateDownvoted
	}
	return StateNone
}

// VoteType returns the stored vote for s, or false for StateNone.
func (s State) VoteType() (models.VoteType, bool) {
	switch s {
	case StateUpvoted:
		return models.Upvote, true
	case StateDownvoted:
		return models.Downvote, true
	}
	return "", false
}

func (s State) String() string {
	switch s {
	case StateUpvoted:
		return "upvote"
	case StateDownvoted:
		return "downvote"
	}
	return "none"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Action string

const (
	ActionRecorded Action = "recorded"
	ActionUpdated  Action = "updated"
	ActionRemoved  Action = "removed"
)

// Delta is the change applied to a target's counters.
type Delta struct {
	Upvotes   int
	Downvotes int
}

// Net is the change in upvotes minus downvotes.
func (d Delta) Net() int {
	return d.Upvotes - d.Downvotes
}

type Transition struct {
	From   State
	To     State
	Delta  Delta
	Action Action
}

// Message is the user-facing description of the transition.
func (t Transition) Message() string {
	return "Vote " + string(t.Action)
}

// Next computes the transition for a voter whose current vote is from and who
// requests requested. Repeating the current vote retracts it; the opposite vote
// switches directly without passing through none.
func Next(from State, requested models.VoteType) (Transition, error) {
	if !requested.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", models.ErrInvalidVoteType, requested)
	}
	to := StateOf(requested)

	switch {
	case from == StateNone:
		return Transition{From: from, To: to, Delta: add(to, 1), Action: ActionRecorded}, nil
	case from == to:
		return Transition{From: from, To: StateNone, Delta: add(from, -1), Action: ActionRemoved}, nil
	default:
		d := add(from, -1)
		up := add(to, 1)
		d.Upvotes += up.Upvotes
		d.Downvotes += up.Downvotes
		return Transition{From: from, To: to, Delta: d, Action: ActionUpdated}, nil
	}
}

func add(s State, n int) Delta {
	switch s {
	case StateUpvoted:
		return Delta{Upvotes: n}
	case StateDownvoted:
		return Delta{Downvotes: n}
	}
	return Delta{}
}

// Counts are the denormalized vote totals of one target.
type Counts struct {
	Upvotes   int `json:"upvote_count"`
	Downvotes int `json:"downvote_count"`
}

// Net is upvotes minus downvotes.
func (c Counts) Net() int {
	return c.Upvotes - c.Downvotes
}

// Total is the number of votes cast.
func (c Counts) Total() int {
	return c.Upvotes + c.Downvotes
}

// Apply returns c moved by d, never below zero.
func (c Counts) Apply(d Delta) Counts {
	return Counts{
		Upvotes:   max(c.Upvotes+d.Upvotes, 0),
		Downvotes: max(c.Downvotes+d.Downvotes, 0),
	}
}
