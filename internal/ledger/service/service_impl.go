package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redeviva/redeviva/internal/clock"
	"github.com/redeviva/redeviva/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Credit(ctx context.Context, tx *gorm.DB, affiliateID snowflake.ID, amount int64, frozen bool) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	balance, err := s.repo.LockBalance(ctx, tx, affiliateID)
	if err != nil {
		return err
	}

	if frozen {
		balance.Frozen += amount
	} else {
		balance.Available += amount
	}
	balance.TotalLifetime += amount
	balance.UpdatedAt = s.clock.Now()
	return s.repo.SaveBalance(ctx, tx, balance)
}

func (s *Service) RecordCommission(ctx context.Context, tx *gorm.DB, event *domain.CommissionEvent) error {
	if event == nil || event.Amount <= 0 {
		return domain.ErrInvalidAmount
	}

	if err := s.repo.InsertEvent(ctx, tx, event); err != nil {
		return err
	}
	return s.Credit(ctx, tx, event.BeneficiaryID, event.Amount, event.FrozenUntil != nil)
}

func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, affiliateID snowflake.ID, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	balance, err := s.repo.LockBalance(ctx, tx, affiliateID)
	if err != nil {
		return err
	}
	if balance.Available < amount {
		return domain.ErrInsufficientBalance
	}

	balance.Available -= amount
	balance.UpdatedAt = s.clock.Now()
	return s.repo.SaveBalance(ctx, tx, balance)
}

func (s *Service) Release(ctx context.Context, tx *gorm.DB, affiliateID snowflake.ID, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	balance, err := s.repo.LockBalance(ctx, tx, affiliateID)
	if err != nil {
		return err
	}

	balance.Available += amount
	balance.UpdatedAt = s.clock.Now()
	return s.repo.SaveBalance(ctx, tx, balance)
}

func (s *Service) ReleaseFrozen(ctx context.Context, before time.Time) (int, error) {
	released := 0
	for {
		batch := 0
		fetched := 0
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			events, err := s.repo.ClaimMaturedFrozen(ctx, tx, before, 100)
			if err != nil {
				return err
			}
			fetched = len(events)
			for _, event := range events {
				// Stamp first; a concurrent run that already released this
				// event must not be credited a second time.
				claimed, err := s.repo.MarkReleased(ctx, tx, event.ID, s.clock.Now())
				if err != nil {
					return err
				}
				if !claimed {
					continue
				}
				balance, err := s.repo.LockBalance(ctx, tx, event.BeneficiaryID)
				if err != nil {
					return err
				}
				if balance.Frozen < event.Amount {
					// Frozen drift would mean a credit path bypassed this
					// service; surface loudly instead of going negative.
					s.log.Error("frozen balance below matured event amount",
						zap.String("beneficiary_id", event.BeneficiaryID.String()),
						zap.Int64("frozen", balance.Frozen),
						zap.Int64("event_amount", event.Amount),
					)
					balance.Available += balance.Frozen
					balance.Frozen = 0
				} else {
					balance.Frozen -= event.Amount
					balance.Available += event.Amount
				}
				balance.UpdatedAt = s.clock.Now()
				if err := s.repo.SaveBalance(ctx, tx, balance); err != nil {
					return err
				}
				batch++
			}
			return nil
		})
		if err != nil {
			return released, err
		}
		released += batch
		if fetched < 100 {
			return released, nil
		}
	}
}

func (s *Service) GetBalance(ctx context.Context, affiliateID snowflake.ID) (domain.Balance, error) {
	balance, err := s.repo.FindBalance(ctx, s.db, affiliateID)
	if err != nil {
		return domain.Balance{}, err
	}
	if balance == nil {
		return domain.Balance{AffiliateID: affiliateID}, nil
	}
	return *balance, nil
}

func (s *Service) EventsByPurchase(ctx context.Context, purchaseID string) ([]domain.CommissionEvent, error) {
	return s.repo.FindEventsByPurchase(ctx, s.db, purchaseID)
}

func (s *Service) EventsByBeneficiary(ctx context.Context, beneficiaryID snowflake.ID, limit int) ([]domain.CommissionEvent, error) {
	return s.repo.FindEventsByBeneficiary(ctx, s.db, beneficiaryID, limit)
}
