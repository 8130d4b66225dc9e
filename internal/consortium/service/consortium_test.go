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
	"github.com/redeviva/redeviva/internal/config"
	"github.com/redeviva/redeviva/internal/consortium/domain"
	consortiumrepo "github.com/redeviva/redeviva/internal/consortium/repository"
	"github.com/redeviva/redeviva/internal/testutil"
)

type consortiumEnv struct {
	db           *gorm.DB
	clk          *clock.FakeClock
	affiliateSvc affiliatedomain.Service
	svc          domain.Service
}

var memberSeq atomic.Int64

func newConsortiumEnv(t *testing.T) *consortiumEnv {
	t.Helper()

	db := testutil.OpenDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	affiliateSvc := affiliateservice.New(affiliateservice.Params{
		DB: db, Log: logger, GenID: node, Repo: affiliaterepo.Provide(),
	})
	svc := New(Params{
		DB:           db,
		Log:          logger,
		GenID:        node,
		Clock:        clk,
		Config:       config.Config{Settlement: config.SettlementConfig{DrawLockTTLSeconds: 30}},
		Repo:         consortiumrepo.Provide(),
		AffiliateSvc: affiliateSvc,
	})

	return &consortiumEnv{db: db, clk: clk, affiliateSvc: affiliateSvc, svc: svc}
}

func (e *consortiumEnv) member(t *testing.T) affiliatedomain.Affiliate {
	t.Helper()
	a, err := e.affiliateSvc.Register(context.Background(), affiliatedomain.RegisterRequest{
		Name:  "Member",
		Email: fmt.Sprintf("consortium%d@example.com", memberSeq.Add(1)),
	})
	require.NoError(t, err)
	return a
}

// fillGroup creates a group with the given seats and joins that many members,
// returning the group id and participants in join order.
func (e *consortiumEnv) fillGroup(t *testing.T, seats int) (domain.Group, []domain.Participant) {
	t.Helper()
	ctx := context.Background()

	group, err := e.svc.CreateGroup(ctx, domain.CreateGroupRequest{
		Name: "Group", Type: string(domain.GroupTypeFreeChoice), MaxParticipants: seats,
	})
	require.NoError(t, err)

	participants := make([]domain.Participant, 0, seats)
	for i := 0; i < seats; i++ {
		p, err := e.svc.Join(ctx, domain.JoinRequest{
			GroupID:     group.ID.String(),
			AffiliateID: e.member(t).ID.String(),
		})
		require.NoError(t, err)
		participants = append(participants, p)
	}

	group, err = e.svc.GetGroup(ctx, group.ID.String())
	require.NoError(t, err)
	return group, participants
}

func TestCreateGroupSeatDefaults(t *testing.T) {
	env := newConsortiumEnv(t)
	ctx := context.Background()

	free, err := env.svc.CreateGroup(ctx, domain.CreateGroupRequest{Name: "A", Type: "free_choice"})
	require.NoError(t, err)
	assert.Equal(t, 12, free.MaxParticipants)
	assert.Equal(t, domain.GroupStatusForming, free.Status)

	appliance, err := env.svc.CreateGroup(ctx, domain.CreateGroupRequest{Name: "B", Type: "appliance"})
	require.NoError(t, err)
	assert.Equal(t, 18, appliance.MaxParticipants)

	custom, err := env.svc.CreateGroup(ctx, domain.CreateGroupRequest{Name: "C", Type: "appliance", MaxParticipants: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, custom.MaxParticipants)

	_, err = env.svc.CreateGroup(ctx, domain.CreateGroupRequest{Name: "D", Type: "timeshare"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	_, err = env.svc.CreateGroup(ctx, domain.CreateGroupRequest{Name: "  ", Type: "appliance"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestJoinAssignsLowestUnusedLuckyNumber(t *testing.T) {
	env := newConsortiumEnv(t)
	group, participants := env.fillGroup(t, 3)

	for i, p := range participants {
		assert.Equal(t, i+1, p.LuckyNumber)
		assert.Equal(t, domain.ParticipantStatusActive, p.Status)
	}

	// Filling the last seat activates the group.
	assert.Equal(t, domain.GroupStatusActive, group.Status)
	assert.Equal(t, 3, group.CurrentParticipants)
}

func TestJoinRejections(t *testing.T) {
	env := newConsortiumEnv(t)
	ctx := context.Background()
	group, participants := env.fillGroup(t, 2)

	// Full group.
	_, err := env.svc.Join(ctx, domain.JoinRequest{
		GroupID: group.ID.String(), AffiliateID: env.member(t).ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrGroupFull)

	// Duplicate membership, checked on a group with room.
	open, err := env.svc.CreateGroup(ctx, domain.CreateGroupRequest{Name: "Open", Type: "free_choice"})
	require.NoError(t, err)
	dup := env.member(t)
	_, err = env.svc.Join(ctx, domain.JoinRequest{GroupID: open.ID.String(), AffiliateID: dup.ID.String()})
	require.NoError(t, err)
	_, err = env.svc.Join(ctx, domain.JoinRequest{GroupID: open.ID.String(), AffiliateID: dup.ID.String()})
	assert.ErrorIs(t, err, domain.ErrAlreadyParticipant)

	// Finished group.
	_, err = env.svc.CloseGroup(ctx, group.ID.String())
	require.NoError(t, err)
	_, err = env.svc.Join(ctx, domain.JoinRequest{
		GroupID: group.ID.String(), AffiliateID: participants[0].AffiliateID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrGroupNotJoinable)
}

func TestExecuteDrawDirectWinner(t *testing.T) {
	env := newConsortiumEnv(t)
	group, _ := env.fillGroup(t, 3)
	ctx := context.Background()

	// 57342 mod 3 = 0, so the winning number is 1.
	result, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{
		GroupID: group.ID.String(),
		Seed:    "57342",
	})
	require.NoError(t, err)
	assert.False(t, result.AlreadyDrawn)
	assert.False(t, result.GroupFinished)
	assert.Equal(t, 1, result.Draw.WinningNumber)
	assert.Equal(t, 1, result.Draw.LuckyNumber)
	assert.Equal(t, uint64(57342), result.Draw.Seed)
	assert.Equal(t, "57342", result.Draw.SeedText)
	assert.False(t, result.Draw.Fallback)
	assert.Contains(t, result.Draw.Explanation, "mod 3")

	assert.Equal(t, domain.ParticipantStatusContemplated, result.Winner.Status)
	require.NotNil(t, result.Winner.ContemplatedAt)
}

func TestExecuteDrawSameSeedReturnsPriorResult(t *testing.T) {
	env := newConsortiumEnv(t)
	group, _ := env.fillGroup(t, 3)
	ctx := context.Background()

	first, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "57342"})
	require.NoError(t, err)

	replay, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "57342"})
	require.NoError(t, err)
	assert.True(t, replay.AlreadyDrawn)
	assert.Equal(t, first.Draw.ID, replay.Draw.ID)
	assert.Equal(t, first.Winner.ID, replay.Winner.ID)

	draws, err := env.svc.ListDraws(ctx, group.ID.String())
	require.NoError(t, err)
	assert.Len(t, draws, 1)
}

func TestExecuteDrawFallbackSkipsContemplated(t *testing.T) {
	env := newConsortiumEnv(t)
	group, _ := env.fillGroup(t, 3)
	ctx := context.Background()

	// First draw contemplates lucky number 1.
	_, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "57342"})
	require.NoError(t, err)

	// 3 mod 3 = 0 targets lucky number 1 again; the holder is already
	// contemplated so the first active participant in lucky-number order wins.
	second, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "3"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Draw.WinningNumber)
	assert.Equal(t, 2, second.Draw.LuckyNumber)
	assert.True(t, second.Draw.Fallback)
	assert.Contains(t, second.Draw.Explanation, "fell back")
}

func TestExecuteDrawFinishesGroupOnLastContemplation(t *testing.T) {
	env := newConsortiumEnv(t)
	group, _ := env.fillGroup(t, 2)
	ctx := context.Background()

	first, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "10"})
	require.NoError(t, err)
	assert.False(t, first.GroupFinished)

	second, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "11"})
	require.NoError(t, err)
	assert.True(t, second.GroupFinished)
	assert.NotEqual(t, first.Winner.ID, second.Winner.ID)

	finished, err := env.svc.GetGroup(ctx, group.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.GroupStatusFinished, finished.Status)

	// A finished group accepts no further draws with a fresh seed.
	_, err = env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "12"})
	assert.ErrorIs(t, err, domain.ErrGroupNotActive)
}

func TestExecuteDrawFinalSeedRetryReturnsPriorResult(t *testing.T) {
	env := newConsortiumEnv(t)
	group, _ := env.fillGroup(t, 2)
	ctx := context.Background()

	_, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "11"})
	require.NoError(t, err)

	final, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "12"})
	require.NoError(t, err)
	require.True(t, final.GroupFinished)

	// Redelivering the draw that finished the group stays a benign no-op
	// even though the group is no longer active.
	retry, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "12"})
	require.NoError(t, err)
	assert.True(t, retry.AlreadyDrawn)
	assert.Equal(t, final.Draw.ID, retry.Draw.ID)
	assert.Equal(t, final.Winner.ID, retry.Winner.ID)

	draws, err := env.svc.ListDraws(ctx, group.ID.String())
	require.NoError(t, err)
	assert.Len(t, draws, 2)
}

func TestExecuteDrawGuards(t *testing.T) {
	env := newConsortiumEnv(t)
	ctx := context.Background()

	forming, err := env.svc.CreateGroup(ctx, domain.CreateGroupRequest{Name: "Forming", Type: "free_choice"})
	require.NoError(t, err)

	_, err = env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: forming.ID.String(), Seed: "57342"})
	assert.ErrorIs(t, err, domain.ErrGroupNotActive)

	group, _ := env.fillGroup(t, 2)
	_, err = env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "   "})
	assert.ErrorIs(t, err, domain.ErrSeedRequired)

	_, err = env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: "oops", Seed: "57342"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestMarkDefaultedExcludesFromDraws(t *testing.T) {
	env := newConsortiumEnv(t)
	group, participants := env.fillGroup(t, 3)
	ctx := context.Background()

	defaulted, err := env.svc.MarkDefaulted(ctx, participants[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipantStatusDefaulted, defaulted.Status)

	// Only active participants may default.
	_, err = env.svc.MarkDefaulted(ctx, participants[0].ID.String())
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	// 57342 mod 3 = 0 targets lucky number 1, now defaulted; the draw falls
	// back to the first active participant instead.
	result, err := env.svc.ExecuteDraw(ctx, domain.DrawRequest{GroupID: group.ID.String(), Seed: "57342"})
	require.NoError(t, err)
	assert.True(t, result.Draw.Fallback)
	assert.Equal(t, 2, result.Draw.LuckyNumber)
}

func TestCloseGroupTransitions(t *testing.T) {
	env := newConsortiumEnv(t)
	ctx := context.Background()

	forming, err := env.svc.CreateGroup(ctx, domain.CreateGroupRequest{Name: "Forming", Type: "free_choice"})
	require.NoError(t, err)
	_, err = env.svc.CloseGroup(ctx, forming.ID.String())
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	group, _ := env.fillGroup(t, 2)
	closed, err := env.svc.CloseGroup(ctx, group.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.GroupStatusFinished, closed.Status)

	_, err = env.svc.CloseGroup(ctx, group.ID.String())
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}
