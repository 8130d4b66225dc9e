package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redeviva/redeviva/internal/commissionrule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("commissionrule.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) ActiveRule(ctx context.Context, scope domain.Scope, generation int) (domain.CommissionRule, error) {
	ruleSet, err := s.RuleSet(ctx, scope)
	if err != nil {
		return domain.CommissionRule{}, err
	}
	rule, ok := ruleSet.RuleFor(generation)
	if !ok {
		return domain.CommissionRule{}, domain.ErrNoRule
	}
	return rule, nil
}

func (s *Service) RuleSet(ctx context.Context, scope domain.Scope) (domain.RuleSet, error) {
	scopeRow, err := s.repo.FindScope(ctx, s.db, scope)
	if err != nil {
		return domain.RuleSet{}, err
	}
	if scopeRow == nil {
		return domain.RuleSet{}, domain.ErrUnknownScope
	}

	rules, err := s.repo.FindRules(ctx, s.db, scope)
	if err != nil {
		return domain.RuleSet{}, err
	}

	byGeneration := make(map[int]domain.CommissionRule, len(rules))
	for _, rule := range rules {
		byGeneration[rule.Generation] = rule
	}

	return domain.RuleSet{
		Scope:             scope,
		ActiveGenerations: scopeRow.ActiveGenerations,
		Rules:             byGeneration,
	}, nil
}

func (s *Service) ListRules(ctx context.Context, scope domain.Scope) (domain.RuleSet, error) {
	return s.RuleSet(ctx, scope)
}

func (s *Service) UpsertRule(ctx context.Context, req domain.UpsertRuleRequest) (domain.CommissionRule, error) {
	scope := domain.Scope(strings.TrimSpace(req.Scope))
	if scope == "" {
		return domain.CommissionRule{}, domain.ErrUnknownScope
	}
	if req.Generation < 1 || req.Generation > domain.MaxGenerations {
		return domain.CommissionRule{}, domain.ErrInvalidGeneration
	}
	if req.Value < 0 {
		return domain.CommissionRule{}, domain.ErrInvalidValue
	}

	kind, err := normalizeValueKind(req.ValueKind)
	if err != nil {
		return domain.CommissionRule{}, err
	}

	scopeRow, err := s.repo.FindScope(ctx, s.db, scope)
	if err != nil {
		return domain.CommissionRule{}, err
	}
	if scopeRow == nil {
		return domain.CommissionRule{}, domain.ErrUnknownScope
	}

	rule := domain.CommissionRule{
		ID:         s.genID.Generate(),
		Scope:      scope,
		Generation: req.Generation,
		Value:      req.Value,
		ValueKind:  kind,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.repo.UpsertRule(ctx, s.db, &rule); err != nil {
		return domain.CommissionRule{}, err
	}

	s.log.Info("commission rule updated",
		zap.String("scope", string(scope)),
		zap.Int("generation", req.Generation),
		zap.Int64("value", req.Value),
		zap.String("value_kind", string(kind)),
	)
	return rule, nil
}

func (s *Service) SetActiveGenerations(ctx context.Context, req domain.SetActiveGenerationsRequest) (domain.CommissionScope, error) {
	scope := domain.Scope(strings.TrimSpace(req.Scope))
	if scope == "" {
		return domain.CommissionScope{}, domain.ErrUnknownScope
	}
	if req.ActiveGenerations < 0 || req.ActiveGenerations > domain.MaxGenerations {
		return domain.CommissionScope{}, domain.ErrInvalidGeneration
	}

	row := domain.CommissionScope{
		Scope:             scope,
		ActiveGenerations: req.ActiveGenerations,
		UpdatedAt:         time.Now().UTC(),
	}
	if err := s.repo.UpsertScope(ctx, s.db, &row); err != nil {
		return domain.CommissionScope{}, err
	}

	s.log.Info("commission scope cutoff updated",
		zap.String("scope", string(scope)),
		zap.Int("active_generations", req.ActiveGenerations),
	)
	return row, nil
}

func normalizeValueKind(kind string) (domain.ValueKind, error) {
	switch domain.ValueKind(strings.ToLower(strings.TrimSpace(kind))) {
	case domain.ValueKindPercentage:
		return domain.ValueKindPercentage, nil
	case domain.ValueKindFixed:
		return domain.ValueKindFixed, nil
	default:
		return "", domain.ErrInvalidValueKind
	}
}
