package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliatedomain "github.com/redeviva/redeviva/internal/affiliate/domain"
	"github.com/redeviva/redeviva/internal/clock"
	"github.com/redeviva/redeviva/internal/config"
	"github.com/redeviva/redeviva/internal/consortium/domain"
	"github.com/redeviva/redeviva/internal/consortium/draw"
	"github.com/redeviva/redeviva/internal/lock"
	"github.com/redeviva/redeviva/internal/metrics"
	pkgdb "github.com/redeviva/redeviva/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Config       config.Config
	Repo         domain.Repository
	AffiliateSvc affiliatedomain.Service
	Locker       *lock.Locker     `optional:"true"`
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	cfg          config.SettlementConfig
	repo         domain.Repository
	affiliateSvc affiliatedomain.Service
	locker       *lock.Locker
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("consortium.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		cfg:          p.Config.Settlement,
		repo:         p.Repo,
		affiliateSvc: p.AffiliateSvc,
		locker:       p.Locker,
		metrics:      p.Metrics,
	}
}

func (s *Service) CreateGroup(ctx context.Context, req domain.CreateGroupRequest) (domain.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Group{}, domain.ErrInvalidName
	}

	groupType, err := normalizeType(req.Type)
	if err != nil {
		return domain.Group{}, err
	}

	seats := groupType.DefaultSeats()
	if req.MaxParticipants > 0 {
		seats = req.MaxParticipants
	}

	now := s.clock.Now()
	group := domain.Group{
		ID:              s.genID.Generate(),
		Name:            name,
		Type:            groupType,
		MaxParticipants: seats,
		Status:          domain.GroupStatusForming,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.InsertGroup(ctx, s.db, &group); err != nil {
		return domain.Group{}, err
	}

	s.log.Info("consortium group created",
		zap.String("group_id", group.ID.String()),
		zap.String("type", string(groupType)),
		zap.Int("max_participants", seats),
	)
	return group, nil
}

func (s *Service) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Group{}, err
	}
	group, err := s.repo.FindGroup(ctx, s.db, parsed)
	if err != nil {
		return domain.Group{}, err
	}
	if group == nil {
		return domain.Group{}, domain.ErrNotFound
	}
	return *group, nil
}

func (s *Service) ListGroups(ctx context.Context, status string) ([]domain.Group, error) {
	return s.repo.ListGroups(ctx, s.db, domain.GroupStatus(strings.TrimSpace(status)))
}

func (s *Service) ListParticipants(ctx context.Context, groupID string) ([]domain.Participant, error) {
	parsed, err := s.parseID(groupID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListParticipants(ctx, s.db, parsed)
}

func (s *Service) ListDraws(ctx context.Context, groupID string) ([]domain.Draw, error) {
	parsed, err := s.parseID(groupID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDraws(ctx, s.db, parsed)
}

func (s *Service) Join(ctx context.Context, req domain.JoinRequest) (domain.Participant, error) {
	groupID, err := s.parseID(req.GroupID)
	if err != nil {
		return domain.Participant{}, err
	}

	affiliate, err := s.affiliateSvc.GetByID(ctx, req.AffiliateID)
	if err != nil {
		return domain.Participant{}, err
	}

	var participant domain.Participant
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := s.repo.LockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return domain.ErrNotFound
		}
		if group.Status == domain.GroupStatusFinished {
			return domain.ErrGroupNotJoinable
		}
		if group.CurrentParticipants >= group.MaxParticipants {
			return domain.ErrGroupFull
		}

		existing, err := s.repo.ListParticipants(ctx, tx, groupID)
		if err != nil {
			return err
		}

		used := make(map[int]bool, len(existing))
		for _, p := range existing {
			if p.AffiliateID == affiliate.ID {
				return domain.ErrAlreadyParticipant
			}
			used[p.LuckyNumber] = true
		}

		luckyNumber := 0
		for n := 1; n <= group.MaxParticipants; n++ {
			if !used[n] {
				luckyNumber = n
				break
			}
		}
		if luckyNumber == 0 {
			return domain.ErrGroupFull
		}

		now := s.clock.Now()
		participant = domain.Participant{
			ID:          s.genID.Generate(),
			GroupID:     groupID,
			AffiliateID: affiliate.ID,
			LuckyNumber: luckyNumber,
			Status:      domain.ParticipantStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.InsertParticipant(ctx, tx, &participant); err != nil {
			return err
		}

		group.CurrentParticipants++
		if group.CurrentParticipants == group.MaxParticipants && group.Status == domain.GroupStatusForming {
			group.Status = domain.GroupStatusActive
		}
		group.UpdatedAt = now
		return s.repo.SaveGroup(ctx, tx, group)
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.Participant{}, domain.ErrGroupFull
		}
		return domain.Participant{}, err
	}

	return participant, nil
}

func (s *Service) ExecuteDraw(ctx context.Context, req domain.DrawRequest) (domain.DrawResult, error) {
	groupID, err := s.parseID(req.GroupID)
	if err != nil {
		return domain.DrawResult{}, err
	}

	seedText := strings.TrimSpace(req.Seed)
	if seedText == "" {
		return domain.DrawResult{}, domain.ErrSeedRequired
	}

	// The redis lock only rejects obvious double submissions early; the
	// group row lock below is what actually serializes concurrent draws.
	if s.locker != nil {
		key := "consortium:draw:" + groupID.String()
		ttl := time.Duration(s.cfg.DrawLockTTLSeconds) * time.Second
		token, ok, err := s.locker.TryLock(ctx, key, ttl)
		if err != nil {
			s.log.Warn("draw lock unavailable, relying on row lock", zap.Error(err))
		} else if !ok {
			return domain.DrawResult{}, domain.ErrDrawLocked
		} else {
			defer func() {
				if err := s.locker.Release(ctx, key, token); err != nil {
					s.log.Warn("failed to release draw lock", zap.Error(err))
				}
			}()
		}
	}

	var result domain.DrawResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := s.repo.LockGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return domain.ErrNotFound
		}
		// A redelivered seed returns the prior draw instead of re-drawing.
		// This runs ahead of the status guard: a retry of the final draw
		// finds the group already finished and must still be a benign no-op.
		prior, err := s.repo.FindDrawBySeed(ctx, tx, groupID, seedText)
		if err != nil {
			return err
		}
		if prior != nil {
			winner, err := s.repo.FindParticipant(ctx, tx, prior.ParticipantID)
			if err != nil {
				return err
			}
			result = domain.DrawResult{Draw: *prior, AlreadyDrawn: true}
			if winner != nil {
				result.Winner = *winner
			}
			return nil
		}

		if group.Status != domain.GroupStatusActive {
			return domain.ErrGroupNotActive
		}

		participants, err := s.repo.ListParticipants(ctx, tx, groupID)
		if err != nil {
			return err
		}

		candidates := make([]draw.Candidate, 0, len(participants))
		byNumber := make(map[int]*domain.Participant, len(participants))
		for i := range participants {
			p := &participants[i]
			candidates = append(candidates, draw.Candidate{
				LuckyNumber: p.LuckyNumber,
				Active:      p.Status == domain.ParticipantStatusActive,
			})
			byNumber[p.LuckyNumber] = p
		}

		seed, err := draw.Seed(seedText)
		if err != nil {
			return err
		}
		outcome, err := draw.Resolve(seed, group.MaxParticipants, candidates)
		if err != nil {
			if err == draw.ErrNoActiveParticipants {
				return domain.ErrNoActiveParticipants
			}
			return err
		}

		winner := byNumber[outcome.LuckyNumber]
		now := s.clock.Now()
		winner.Status = domain.ParticipantStatusContemplated
		winner.ContemplatedAt = &now
		winner.UpdatedAt = now
		if err := s.repo.UpdateParticipantStatus(ctx, tx, winner); err != nil {
			return err
		}

		record := domain.Draw{
			ID:            s.genID.Generate(),
			GroupID:       groupID,
			ParticipantID: winner.ID,
			SeedText:      seedText,
			Seed:          outcome.Seed,
			WinningNumber: outcome.WinningNumber,
			LuckyNumber:   outcome.LuckyNumber,
			Fallback:      outcome.Fallback,
			Explanation:   draw.Explain(seedText, outcome, group.MaxParticipants),
			VideoURL:      strings.TrimSpace(req.VideoURL),
			OfficialURL:   strings.TrimSpace(req.OfficialURL),
			DrawnAt:       now,
		}
		if err := s.repo.InsertDraw(ctx, tx, &record); err != nil {
			return err
		}

		activeLeft := 0
		for i := range participants {
			if participants[i].ID == winner.ID {
				continue
			}
			if participants[i].Status == domain.ParticipantStatusActive {
				activeLeft++
			}
		}
		finished := activeLeft == 0
		if finished {
			group.Status = domain.GroupStatusFinished
			group.UpdatedAt = now
			if err := s.repo.SaveGroup(ctx, tx, group); err != nil {
				return err
			}
		}

		result = domain.DrawResult{
			Draw:          record,
			Winner:        *winner,
			GroupFinished: finished,
		}
		return nil
	})
	if err != nil {
		return domain.DrawResult{}, err
	}

	if !result.AlreadyDrawn {
		outcome := "direct"
		if result.Draw.Fallback {
			outcome = "fallback"
		}
		if s.metrics != nil {
			s.metrics.DrawsExecuted.WithLabelValues(outcome).Inc()
		}
		s.log.Info("consortium draw executed",
			zap.String("group_id", groupID.String()),
			zap.String("seed", seedText),
			zap.Int("winning_number", result.Draw.WinningNumber),
			zap.Int("lucky_number", result.Draw.LuckyNumber),
			zap.Bool("fallback", result.Draw.Fallback),
		)
	}
	return result, nil
}

func (s *Service) MarkDefaulted(ctx context.Context, participantID string) (domain.Participant, error) {
	parsed, err := s.parseID(participantID)
	if err != nil {
		return domain.Participant{}, err
	}

	var updated domain.Participant
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		participant, err := s.repo.FindParticipant(ctx, tx, parsed)
		if err != nil {
			return err
		}
		if participant == nil {
			return domain.ErrNotFound
		}
		if participant.Status != domain.ParticipantStatusActive {
			return domain.ErrIllegalTransition
		}

		participant.Status = domain.ParticipantStatusDefaulted
		participant.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateParticipantStatus(ctx, tx, participant); err != nil {
			return err
		}
		updated = *participant
		return nil
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return updated, nil
}

func (s *Service) CloseGroup(ctx context.Context, id string) (domain.Group, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Group{}, err
	}

	var closed domain.Group
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := s.repo.LockGroup(ctx, tx, parsed)
		if err != nil {
			return err
		}
		if group == nil {
			return domain.ErrNotFound
		}
		if group.Status != domain.GroupStatusActive {
			return domain.ErrIllegalTransition
		}

		group.Status = domain.GroupStatusFinished
		group.UpdatedAt = s.clock.Now()
		if err := s.repo.SaveGroup(ctx, tx, group); err != nil {
			return err
		}
		closed = *group
		return nil
	})
	if err != nil {
		return domain.Group{}, err
	}
	return closed, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeType(raw string) (domain.GroupType, error) {
	switch domain.GroupType(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.GroupTypeFreeChoice:
		return domain.GroupTypeFreeChoice, nil
	case domain.GroupTypeAppliance:
		return domain.GroupTypeAppliance, nil
	default:
		return "", domain.ErrInvalidType
	}
}
