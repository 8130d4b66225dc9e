package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/redeviva/redeviva/pkg/db/pagination"
)

type RegisterRequest struct {
	Name      string
	Email     string
	SponsorID string
}

type ListRequest struct {
	PageToken string
	PageSize  int
	Email     string
	Active    *bool
}

type ListFilter struct {
	Email  string
	Active *bool
}

type ListResponse struct {
	pagination.PageInfo
	Affiliates []Affiliate `json:"affiliates"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (Affiliate, error)
	GetByID(ctx context.Context, id string) (Affiliate, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Verify(ctx context.Context, id string) (Affiliate, error)
	Block(ctx context.Context, id string) (Affiliate, error)
	Unblock(ctx context.Context, id string) (Affiliate, error)
	Deactivate(ctx context.Context, id string) error

	// Upline walks the sponsor chain starting at the affiliate's direct
	// sponsor (generation 1), ascending one hop per generation up to
	// maxDepth. The walk is bounded and guarded against cycles even though
	// registration forbids them.
	Upline(ctx context.Context, id snowflake.ID, maxDepth int) ([]Ancestor, error)
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrSponsorUnknown = errors.New("sponsor_unknown")
	ErrSponsorBlocked = errors.New("sponsor_blocked")
	ErrEmailTaken     = errors.New("email_taken")
	ErrHasDependents  = errors.New("has_dependents")
	ErrSponsorCycle   = errors.New("sponsor_cycle")
)
