package domain

import (
	"context"
	"errors"
)

type UpsertRuleRequest struct {
	Scope      string
	Generation int
	Value      int64
	ValueKind  string
}

type SetActiveGenerationsRequest struct {
	Scope             string
	ActiveGenerations int
}

type Service interface {
	// ActiveRule resolves one (scope, generation) pair against the live
	// table. Unknown scopes surface ErrUnknownScope; generations past the
	// cutoff or without a positive rule surface ErrNoRule.
	ActiveRule(ctx context.Context, scope Scope, generation int) (CommissionRule, error)

	// RuleSet loads the whole scope configuration as one snapshot for a
	// commission run. Later table edits never touch snapshots already taken.
	RuleSet(ctx context.Context, scope Scope) (RuleSet, error)

	UpsertRule(ctx context.Context, req UpsertRuleRequest) (CommissionRule, error)
	SetActiveGenerations(ctx context.Context, req SetActiveGenerationsRequest) (CommissionScope, error)
	ListRules(ctx context.Context, scope Scope) (RuleSet, error)
}

var (
	ErrUnknownScope      = errors.New("unknown_scope")
	ErrNoRule            = errors.New("no_rule")
	ErrInvalidGeneration = errors.New("invalid_generation")
	ErrInvalidValue      = errors.New("invalid_value")
	ErrInvalidValueKind  = errors.New("invalid_value_kind")
)
