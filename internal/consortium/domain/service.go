package domain

import (
	"context"
	"errors"
)

type CreateGroupRequest struct {
	Name string
	Type string
	// MaxParticipants overrides the type default when positive.
	MaxParticipants int
}

type JoinRequest struct {
	GroupID     string
	AffiliateID string
}

type DrawRequest struct {
	GroupID string
	// Seed is the literal published lottery result string.
	Seed        string
	VideoURL    string
	OfficialURL string
}

type DrawResult struct {
	Draw          Draw        `json:"draw"`
	Winner        Participant `json:"winner"`
	AlreadyDrawn  bool        `json:"already_drawn"`
	GroupFinished bool        `json:"group_finished"`
}

type Service interface {
	CreateGroup(ctx context.Context, req CreateGroupRequest) (Group, error)
	GetGroup(ctx context.Context, id string) (Group, error)
	ListGroups(ctx context.Context, status string) ([]Group, error)
	ListParticipants(ctx context.Context, groupID string) ([]Participant, error)
	ListDraws(ctx context.Context, groupID string) ([]Draw, error)

	// Join assigns the lowest unused lucky number in the group. Rejected when
	// the group is full or finished. Filling the last seat moves the group
	// from forming to active.
	Join(ctx context.Context, req JoinRequest) (Participant, error)

	// ExecuteDraw runs one period's contemplation. Re-submitting a seed that
	// was already drawn returns the prior result; each new seed consumes one
	// period. Concurrent draws on one group serialize on the group row lock.
	ExecuteDraw(ctx context.Context, req DrawRequest) (DrawResult, error)

	// MarkDefaulted removes a participant from draw eligibility.
	MarkDefaulted(ctx context.Context, participantID string) (Participant, error)

	// CloseGroup is the explicit admin transition active -> finished.
	CloseGroup(ctx context.Context, id string) (Group, error)
}

var (
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidType          = errors.New("invalid_type")
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("not_found")
	ErrGroupFull            = errors.New("group_full")
	ErrGroupNotJoinable     = errors.New("group_not_joinable")
	ErrGroupNotActive       = errors.New("group_not_active")
	ErrAlreadyParticipant   = errors.New("already_participant")
	ErrSeedRequired         = errors.New("seed_required")
	ErrNoActiveParticipants = errors.New("no_active_participants")
	ErrIllegalTransition    = errors.New("illegal_transition")
	ErrDrawLocked           = errors.New("draw_locked")
)
