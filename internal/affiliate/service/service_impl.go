package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redeviva/redeviva/internal/affiliate/domain"
	pkgdb "github.com/redeviva/redeviva/pkg/db"
	"github.com/redeviva/redeviva/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("affiliate.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.Affiliate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Affiliate{}, domain.ErrInvalidName
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Affiliate{}, domain.ErrInvalidEmail
	}

	var sponsorID *snowflake.ID
	if raw := strings.TrimSpace(req.SponsorID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.Affiliate{}, domain.ErrSponsorUnknown
		}
		sponsor, err := s.repo.FindByID(ctx, s.db, id)
		if err != nil {
			return domain.Affiliate{}, err
		}
		if sponsor == nil {
			return domain.Affiliate{}, domain.ErrSponsorUnknown
		}
		if !sponsor.IsActive {
			return domain.Affiliate{}, domain.ErrSponsorBlocked
		}
		sponsorID = &sponsor.ID
	}

	now := time.Now().UTC()
	affiliate := domain.Affiliate{
		ID:         s.genID.Generate(),
		SponsorID:  sponsorID,
		Name:       name,
		Email:      email,
		IsActive:   true,
		IsVerified: false,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, &affiliate); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.Affiliate{}, domain.ErrEmailTaken
		}
		return domain.Affiliate{}, err
	}

	return affiliate, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Affiliate, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Affiliate{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Affiliate{}, err
	}
	if item == nil {
		return domain.Affiliate{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Email:  strings.TrimSpace(strings.ToLower(req.Email)),
		Active: req.Active,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(a *domain.Affiliate) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        a.ID.String(),
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	affiliates := make([]domain.Affiliate, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		affiliates = append(affiliates, *item)
	}

	resp := domain.ListResponse{Affiliates: affiliates}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Verify(ctx context.Context, id string) (domain.Affiliate, error) {
	return s.setFlags(ctx, id, func(a *domain.Affiliate) {
		a.IsVerified = true
	})
}

func (s *Service) Block(ctx context.Context, id string) (domain.Affiliate, error) {
	return s.setFlags(ctx, id, func(a *domain.Affiliate) {
		a.IsActive = false
	})
}

func (s *Service) Unblock(ctx context.Context, id string) (domain.Affiliate, error) {
	return s.setFlags(ctx, id, func(a *domain.Affiliate) {
		if a.DeactivatedAt == nil {
			a.IsActive = true
		}
	})
}

// Deactivate soft-deletes an affiliate. Hard deletion is never offered: an
// affiliate with downline or ledger history is load-bearing for commission
// audits, so the request is rejected outright when dependents exist.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	parsed, err := s.parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affiliate, err := s.repo.FindByID(ctx, tx, parsed)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return domain.ErrNotFound
		}

		downline, err := s.repo.CountDownline(ctx, tx, parsed)
		if err != nil {
			return err
		}
		if downline > 0 {
			return domain.ErrHasDependents
		}

		var lifetime int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COALESCE(total_lifetime, 0) FROM balances WHERE affiliate_id = ?`,
			parsed,
		).Scan(&lifetime).Error; err != nil {
			return err
		}
		if lifetime > 0 {
			return domain.ErrHasDependents
		}

		now := time.Now().UTC()
		affiliate.IsActive = false
		affiliate.DeactivatedAt = &now
		affiliate.UpdatedAt = now
		return s.repo.UpdateFlags(ctx, tx, affiliate)
	})
}

func (s *Service) Upline(ctx context.Context, id snowflake.ID, maxDepth int) ([]domain.Ancestor, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}

	visited := map[snowflake.ID]struct{}{current.ID: {}}
	ancestors := make([]domain.Ancestor, 0, maxDepth)

	for generation := 1; generation <= maxDepth; generation++ {
		if current.SponsorID == nil {
			break
		}
		next, err := s.repo.FindByID(ctx, s.db, *current.SponsorID)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		if _, seen := visited[next.ID]; seen {
			s.log.Error("sponsor chain contains a cycle",
				zap.String("affiliate_id", id.String()),
				zap.String("repeated_id", next.ID.String()),
			)
			return nil, domain.ErrSponsorCycle
		}
		visited[next.ID] = struct{}{}
		ancestors = append(ancestors, domain.Ancestor{Generation: generation, Affiliate: *next})
		current = next
	}

	return ancestors, nil
}

func (s *Service) setFlags(ctx context.Context, id string, mutate func(*domain.Affiliate)) (domain.Affiliate, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.Affiliate{}, err
	}

	affiliate, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Affiliate{}, err
	}
	if affiliate == nil {
		return domain.Affiliate{}, domain.ErrNotFound
	}

	mutate(affiliate)
	affiliate.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateFlags(ctx, s.db, affiliate); err != nil {
		return domain.Affiliate{}, err
	}
	return *affiliate, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
