package voting

import "github.com/emilythestrangee/qa-community/backend/internal/models"

// Shadow is a client-side copy of a target's counts and the viewer's own vote.
// Apply updates it optimistically with the transition table; it is advisory only and
// must be replaced by Reconcile with what the server returns on the next read.
type Shadow struct {
	Counts Counts
	State  State
	stale  bool
}

// Apply optimistically applies a vote and returns the transition it assumed.
func (s *Shadow) Apply(requested models.VoteType) (Transition, error) {
	t, err := Next(s.State, requested)
	if err != nil {
		return Transition{}, err
	}
	s.Counts = s.Counts.Apply(t.Delta)
	s.State = t.To
	s.stale = true
	return t, nil
}

// Reconcile discards local math in favour of server state.
func (s *Shadow) Reconcile(server Counts, state State) {
	s.Counts = server
	s.State = state
	s.stale = false
}

// Stale reports whether optimistic changes were applied since the last Reconcile.
func (s *Shadow) Stale() bool {
	return s.stale
}
