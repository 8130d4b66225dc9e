package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	affiliatedomain "github.com/redeviva/redeviva/internal/affiliate/domain"
	affiliaterepo "github.com/redeviva/redeviva/internal/affiliate/repository"
	affiliateservice "github.com/redeviva/redeviva/internal/affiliate/service"
	"github.com/redeviva/redeviva/internal/clock"
	"github.com/redeviva/redeviva/internal/commission/domain"
	ruledomain "github.com/redeviva/redeviva/internal/commissionrule/domain"
	rulerepo "github.com/redeviva/redeviva/internal/commissionrule/repository"
	ruleservice "github.com/redeviva/redeviva/internal/commissionrule/service"
	"github.com/redeviva/redeviva/internal/config"
	ledgerdomain "github.com/redeviva/redeviva/internal/ledger/domain"
	ledgerrepo "github.com/redeviva/redeviva/internal/ledger/repository"
	ledgerservice "github.com/redeviva/redeviva/internal/ledger/service"
	"github.com/redeviva/redeviva/internal/testutil"
)

type cascadeEnv struct {
	db           *gorm.DB
	clk          *clock.FakeClock
	affiliateSvc affiliatedomain.Service
	ledgerSvc    ledgerdomain.Service
	svc          domain.Service
}

func newCascadeEnv(t *testing.T, cfg config.SettlementConfig) *cascadeEnv {
	t.Helper()

	db := testutil.OpenDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	affiliateSvc := affiliateservice.New(affiliateservice.Params{
		DB: db, Log: logger, GenID: node, Repo: affiliaterepo.Provide(),
	})
	ruleSvc := ruleservice.New(ruleservice.Params{
		DB: db, Log: logger, GenID: node, Repo: rulerepo.Provide(),
	})
	ledgerSvc := ledgerservice.New(ledgerservice.Params{
		DB: db, Log: logger, GenID: node, Clock: clk, Repo: ledgerrepo.Provide(),
	})
	svc := New(Params{
		DB:           db,
		Log:          logger,
		GenID:        node,
		Clock:        clk,
		Config:       config.Config{Settlement: cfg},
		AffiliateSvc: affiliateSvc,
		RuleSvc:      ruleSvc,
		LedgerSvc:    ledgerSvc,
	})

	return &cascadeEnv{db: db, clk: clk, affiliateSvc: affiliateSvc, ledgerSvc: ledgerSvc, svc: svc}
}

func (e *cascadeEnv) seedScope(t *testing.T, scope ruledomain.Scope, cutoff int, percents map[int]int64) {
	t.Helper()
	require.NoError(t, e.db.Create(&ruledomain.CommissionScope{
		Scope: scope, ActiveGenerations: cutoff, UpdatedAt: e.clk.Now(),
	}).Error)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	for generation, value := range percents {
		require.NoError(t, e.db.Create(&ruledomain.CommissionRule{
			ID: node.Generate(), Scope: scope, Generation: generation,
			Value: value, ValueKind: ruledomain.ValueKindPercentage, UpdatedAt: e.clk.Now(),
		}).Error)
	}
}

// chain registers n affiliates where each sponsors the next; index 0 is the
// root of the upline and the last entry is the purchaser.
func (e *cascadeEnv) chain(t *testing.T, n int) []affiliatedomain.Affiliate {
	t.Helper()
	ctx := context.Background()
	out := make([]affiliatedomain.Affiliate, 0, n)
	for i := 0; i < n; i++ {
		req := affiliatedomain.RegisterRequest{
			Name:  "Member",
			Email: fmt.Sprintf("member%d@example.com", emailSeq.Add(1)),
		}
		if i > 0 {
			req.SponsorID = out[i-1].ID.String()
		}
		a, err := e.affiliateSvc.Register(ctx, req)
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

var emailSeq atomic.Int64

func TestCascadeCreditsUplineGenerations(t *testing.T) {
	env := newCascadeEnv(t, config.SettlementConfig{})
	env.seedScope(t, ruledomain.ScopeGeneral, 3, map[int]int64{1: 10, 2: 5, 3: 3})
	members := env.chain(t, 4)
	purchaser := members[3]
	ctx := context.Background()

	result, err := env.svc.ProcessConfirmedPurchase(ctx, domain.ProcessPurchaseRequest{
		PurchaseID:  "purchase-1",
		AffiliateID: purchaser.ID.String(),
		Scope:       string(ruledomain.ScopeGeneral),
		BaseAmount:  1000,
	})
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	require.Len(t, result.Credits, 3)

	expected := map[snowflake.ID]int64{
		members[2].ID: 100, // generation 1, 10%
		members[1].ID: 50,  // generation 2, 5%
		members[0].ID: 30,  // generation 3, 3%
	}
	for _, credit := range result.Credits {
		assert.Equal(t, expected[credit.BeneficiaryID], credit.Amount)
		assert.Equal(t, int64(1000), credit.BaseAmount)
		assert.Equal(t, ruledomain.ValueKindPercentage, credit.RuleValueKind)
	}

	for id, amount := range expected {
		balance, err := env.ledgerSvc.GetBalance(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, amount, balance.Available)
		assert.Equal(t, int64(0), balance.Frozen)
		assert.Equal(t, amount, balance.TotalLifetime)
	}

	// Purchaser earns nothing from their own purchase.
	balance, err := env.ledgerSvc.GetBalance(ctx, purchaser.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.TotalLifetime)
}

func TestCascadeReplayIsIdempotent(t *testing.T) {
	env := newCascadeEnv(t, config.SettlementConfig{})
	env.seedScope(t, ruledomain.ScopeGeneral, 3, map[int]int64{1: 10, 2: 5, 3: 3})
	members := env.chain(t, 4)
	ctx := context.Background()

	req := domain.ProcessPurchaseRequest{
		PurchaseID:  "purchase-replay",
		AffiliateID: members[3].ID.String(),
		Scope:       string(ruledomain.ScopeGeneral),
		BaseAmount:  1000,
	}

	first, err := env.svc.ProcessConfirmedPurchase(ctx, req)
	require.NoError(t, err)
	second, err := env.svc.ProcessConfirmedPurchase(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.AlreadyProcessed)
	assert.Len(t, second.Credits, len(first.Credits))

	balance, err := env.ledgerSvc.GetBalance(ctx, members[2].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.TotalLifetime)
}

func TestCascadeSkipsInactiveAncestorWithoutPassThrough(t *testing.T) {
	env := newCascadeEnv(t, config.SettlementConfig{})
	env.seedScope(t, ruledomain.ScopeGeneral, 3, map[int]int64{1: 10, 2: 5, 3: 3})
	members := env.chain(t, 4)
	ctx := context.Background()

	// Block the generation-1 ancestor after the chain is built.
	_, err := env.affiliateSvc.Block(ctx, members[2].ID.String())
	require.NoError(t, err)

	result, err := env.svc.ProcessConfirmedPurchase(ctx, domain.ProcessPurchaseRequest{
		PurchaseID:  "purchase-blocked",
		AffiliateID: members[3].ID.String(),
		Scope:       string(ruledomain.ScopeGeneral),
		BaseAmount:  1000,
	})
	require.NoError(t, err)
	require.Len(t, result.Credits, 2)

	// The blocked ancestor's slot is forfeited, not passed upward: the
	// remaining ancestors keep their own generations and rates.
	blocked, err := env.ledgerSvc.GetBalance(ctx, members[2].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), blocked.TotalLifetime)

	gen2, err := env.ledgerSvc.GetBalance(ctx, members[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), gen2.Available)

	gen3, err := env.ledgerSvc.GetBalance(ctx, members[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), gen3.Available)
}

func TestCascadeRespectsGenerationCutoff(t *testing.T) {
	env := newCascadeEnv(t, config.SettlementConfig{})
	// Rules exist for three generations but only one is active.
	env.seedScope(t, ruledomain.ScopeGeneral, 1, map[int]int64{1: 10, 2: 5, 3: 3})
	members := env.chain(t, 4)
	ctx := context.Background()

	result, err := env.svc.ProcessConfirmedPurchase(ctx, domain.ProcessPurchaseRequest{
		PurchaseID:  "purchase-cutoff",
		AffiliateID: members[3].ID.String(),
		Scope:       string(ruledomain.ScopeGeneral),
		BaseAmount:  1000,
	})
	require.NoError(t, err)
	require.Len(t, result.Credits, 1)
	assert.Equal(t, members[2].ID, result.Credits[0].BeneficiaryID)
	assert.Equal(t, int64(100), result.Credits[0].Amount)
}

func TestCascadeUnknownScope(t *testing.T) {
	env := newCascadeEnv(t, config.SettlementConfig{})
	members := env.chain(t, 2)

	_, err := env.svc.ProcessConfirmedPurchase(context.Background(), domain.ProcessPurchaseRequest{
		PurchaseID:  "purchase-unknown-scope",
		AffiliateID: members[1].ID.String(),
		Scope:       "mystery",
		BaseAmount:  1000,
	})
	assert.ErrorIs(t, err, ruledomain.ErrUnknownScope)
}

func TestCascadeValidation(t *testing.T) {
	env := newCascadeEnv(t, config.SettlementConfig{})
	ctx := context.Background()

	_, err := env.svc.ProcessConfirmedPurchase(ctx, domain.ProcessPurchaseRequest{
		PurchaseID: "  ", AffiliateID: "1", Scope: "general", BaseAmount: 1000,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPurchaseID)

	_, err = env.svc.ProcessConfirmedPurchase(ctx, domain.ProcessPurchaseRequest{
		PurchaseID: "p", AffiliateID: "1", Scope: "general", BaseAmount: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidBaseAmount)
}

func TestCascadeUnattributedPurchaseIsNoOp(t *testing.T) {
	env := newCascadeEnv(t, config.SettlementConfig{})
	env.seedScope(t, ruledomain.ScopeGeneral, 3, map[int]int64{1: 10})

	missing := snowflake.ID(987654321)
	result, err := env.svc.ProcessConfirmedPurchase(context.Background(), domain.ProcessPurchaseRequest{
		PurchaseID:  "purchase-ghost",
		AffiliateID: missing.String(),
		Scope:       string(ruledomain.ScopeGeneral),
		BaseAmount:  1000,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Credits)
	assert.False(t, result.AlreadyProcessed)
}

func TestCascadeFrozenHoldingAndRelease(t *testing.T) {
	env := newCascadeEnv(t, config.SettlementConfig{FrozenHoldingDays: 7})
	env.seedScope(t, ruledomain.ScopeGeneral, 1, map[int]int64{1: 10})
	members := env.chain(t, 2)
	ctx := context.Background()

	_, err := env.svc.ProcessConfirmedPurchase(ctx, domain.ProcessPurchaseRequest{
		PurchaseID:  "purchase-frozen",
		AffiliateID: members[1].ID.String(),
		Scope:       string(ruledomain.ScopeGeneral),
		BaseAmount:  1000,
	})
	require.NoError(t, err)

	balance, err := env.ledgerSvc.GetBalance(ctx, members[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Available)
	assert.Equal(t, int64(100), balance.Frozen)

	// Before the window elapses nothing is released.
	released, err := env.ledgerSvc.ReleaseFrozen(ctx, env.clk.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	env.clk.Advance(8 * 24 * time.Hour)
	released, err = env.ledgerSvc.ReleaseFrozen(ctx, env.clk.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	balance, err = env.ledgerSvc.GetBalance(ctx, members[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Available)
	assert.Equal(t, int64(0), balance.Frozen)

	// Releasing again is a no-op.
	released, err = env.ledgerSvc.ReleaseFrozen(ctx, env.clk.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, released)
}
