package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redeviva/redeviva/internal/commissionrule/domain"
	"github.com/redeviva/redeviva/internal/commissionrule/repository"
	"github.com/redeviva/redeviva/internal/testutil"
)

func newRuleSvc(t *testing.T) domain.Service {
	t.Helper()

	db := testutil.OpenDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func seedScope(t *testing.T, svc domain.Service, scope string, cutoff int) {
	t.Helper()
	_, err := svc.SetActiveGenerations(context.Background(), domain.SetActiveGenerationsRequest{
		Scope: scope, ActiveGenerations: cutoff,
	})
	require.NoError(t, err)
}

func TestRuleSetFailsClosed(t *testing.T) {
	svc := newRuleSvc(t)
	ctx := context.Background()

	_, err := svc.RuleSet(ctx, domain.ScopeGeneral)
	assert.ErrorIs(t, err, domain.ErrUnknownScope)

	seedScope(t, svc, string(domain.ScopeGeneral), 2)
	_, err = svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: string(domain.ScopeGeneral), Generation: 1, Value: 10, ValueKind: "percentage",
	})
	require.NoError(t, err)
	_, err = svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: string(domain.ScopeGeneral), Generation: 3, Value: 3, ValueKind: "percentage",
	})
	require.NoError(t, err)

	ruleSet, err := svc.RuleSet(ctx, domain.ScopeGeneral)
	require.NoError(t, err)

	// Generation 1 has a rule, 2 has none, 3 is past the cutoff.
	rule, ok := ruleSet.RuleFor(1)
	assert.True(t, ok)
	assert.Equal(t, int64(10), rule.Value)

	_, ok = ruleSet.RuleFor(2)
	assert.False(t, ok)
	_, ok = ruleSet.RuleFor(3)
	assert.False(t, ok)
	_, ok = ruleSet.RuleFor(0)
	assert.False(t, ok)
}

func TestRuleForTreatsZeroValueAsAbsent(t *testing.T) {
	ruleSet := domain.RuleSet{
		Scope:             domain.ScopeGeneral,
		ActiveGenerations: 3,
		Rules: map[int]domain.CommissionRule{
			1: {Generation: 1, Value: 0, ValueKind: domain.ValueKindPercentage},
		},
	}
	_, ok := ruleSet.RuleFor(1)
	assert.False(t, ok)
}

func TestActiveRule(t *testing.T) {
	svc := newRuleSvc(t)
	ctx := context.Background()

	seedScope(t, svc, string(domain.ScopeGeneral), 3)
	_, err := svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: string(domain.ScopeGeneral), Generation: 2, Value: 5, ValueKind: "percentage",
	})
	require.NoError(t, err)

	rule, err := svc.ActiveRule(ctx, domain.ScopeGeneral, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rule.Value)

	_, err = svc.ActiveRule(ctx, domain.ScopeGeneral, 1)
	assert.ErrorIs(t, err, domain.ErrNoRule)
}

func TestUpsertRuleOverwritesExisting(t *testing.T) {
	svc := newRuleSvc(t)
	ctx := context.Background()
	seedScope(t, svc, string(domain.ScopeGeneral), 3)

	_, err := svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: string(domain.ScopeGeneral), Generation: 1, Value: 10, ValueKind: "percentage",
	})
	require.NoError(t, err)
	_, err = svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: string(domain.ScopeGeneral), Generation: 1, Value: 2500, ValueKind: "fixed",
	})
	require.NoError(t, err)

	rule, err := svc.ActiveRule(ctx, domain.ScopeGeneral, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), rule.Value)
	assert.Equal(t, domain.ValueKindFixed, rule.ValueKind)
}

func TestUpsertRuleValidation(t *testing.T) {
	svc := newRuleSvc(t)
	ctx := context.Background()
	seedScope(t, svc, string(domain.ScopeGeneral), 3)

	_, err := svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: string(domain.ScopeGeneral), Generation: 0, Value: 10, ValueKind: "percentage",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidGeneration)

	_, err = svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: string(domain.ScopeGeneral), Generation: domain.MaxGenerations + 1, Value: 10, ValueKind: "percentage",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidGeneration)

	_, err = svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: string(domain.ScopeGeneral), Generation: 1, Value: -1, ValueKind: "percentage",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: string(domain.ScopeGeneral), Generation: 1, Value: 10, ValueKind: "ratio",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValueKind)

	_, err = svc.UpsertRule(ctx, domain.UpsertRuleRequest{
		Scope: "mystery", Generation: 1, Value: 10, ValueKind: "percentage",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownScope)
}

func TestSetActiveGenerationsBounds(t *testing.T) {
	svc := newRuleSvc(t)
	ctx := context.Background()

	scope, err := svc.SetActiveGenerations(ctx, domain.SetActiveGenerationsRequest{
		Scope: string(domain.ScopePremiumLine), ActiveGenerations: domain.MaxGenerations,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxGenerations, scope.ActiveGenerations)

	_, err = svc.SetActiveGenerations(ctx, domain.SetActiveGenerationsRequest{
		Scope: string(domain.ScopePremiumLine), ActiveGenerations: domain.MaxGenerations + 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidGeneration)

	_, err = svc.SetActiveGenerations(ctx, domain.SetActiveGenerationsRequest{
		Scope: "  ", ActiveGenerations: 3,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownScope)

	// Cutoffs may shrink; the snapshot then stops paying deeper generations.
	shrunk, err := svc.SetActiveGenerations(ctx, domain.SetActiveGenerationsRequest{
		Scope: string(domain.ScopePremiumLine), ActiveGenerations: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, shrunk.ActiveGenerations)
}
