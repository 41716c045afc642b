package models

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrInvalidVoteType   = errors.New("invalid vote type")
	ErrInvalidTargetType = errors.New("invalid target type")
	ErrConflictingWrite  = errors.New("conflicting write")
	ErrForbiddenSelfVote = errors.New("cannot vote on your own content")
	ErrNotOwner          = errors.New("not the owner")
)
