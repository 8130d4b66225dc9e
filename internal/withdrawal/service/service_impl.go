package service

import (
	"context"
	"strings"

	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	affiliatedomain "github.com/redeviva/redeviva/internal/affiliate/domain"
	"github.com/redeviva/redeviva/internal/clock"
	"github.com/redeviva/redeviva/internal/config"
	ledgerdomain "github.com/redeviva/redeviva/internal/ledger/domain"
	"github.com/redeviva/redeviva/internal/metrics"
	"github.com/redeviva/redeviva/internal/withdrawal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    config.Config
	Repo         domain.Repository
	LedgerSvc    ledgerdomain.Service
	AffiliateSvc affiliatedomain.Service
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	cfg       config.SettlementConfig
	repo         domain.Repository
	ledgerSvc    ledgerdomain.Service
	affiliateSvc affiliatedomain.Service
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("withdrawal.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		cfg:          p.Config.Settlement,
		repo:         p.Repo,
		ledgerSvc:    p.LedgerSvc,
		affiliateSvc: p.AffiliateSvc,
		metrics:      p.Metrics,
	}
}

func (s *Service) Request(ctx context.Context, req domain.RequestWithdrawal) (domain.Withdrawal, error) {
	affiliateID, err := snowflake.ParseString(strings.TrimSpace(req.AffiliateID))
	if err != nil || affiliateID == 0 {
		return domain.Withdrawal{}, domain.ErrInvalidID
	}
	if req.Amount <= 0 {
		return domain.Withdrawal{}, domain.ErrInvalidAmount
	}
	if req.Amount < s.cfg.MinimumWithdrawal {
		return domain.Withdrawal{}, domain.ErrBelowMinimum
	}
	destination := strings.TrimSpace(req.DestinationKey)
	if destination == "" {
		return domain.Withdrawal{}, domain.ErrMissingDestination
	}

	// Reserving seeds a balance row, so an unknown affiliate must be caught
	// here rather than as a foreign key violation inside the transaction.
	if _, err := s.affiliateSvc.GetByID(ctx, affiliateID.String()); err != nil {
		if errors.Is(err, affiliatedomain.ErrNotFound) {
			return domain.Withdrawal{}, domain.ErrNotFound
		}
		return domain.Withdrawal{}, err
	}

	fee := req.Amount * s.cfg.WithdrawalFeePct / 100
	now := s.clock.Now()
	withdrawal := domain.Withdrawal{
		ID:              s.genID.Generate(),
		AffiliateID:     affiliateID,
		RequestedAmount: req.Amount,
		FeeAmount:       fee,
		NetAmount:       req.Amount - fee,
		DestinationKey:  destination,
		Status:          domain.StatusPending,
		RequestedAt:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// The reservation and the pending row commit together; a failed insert
	// rolls the reservation back so nothing is held without a visible
	// withdrawal.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ledgerSvc.Reserve(ctx, tx, affiliateID, req.Amount); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &withdrawal)
	})
	if err != nil {
		return domain.Withdrawal{}, err
	}

	s.log.Info("withdrawal requested",
		zap.String("withdrawal_id", withdrawal.ID.String()),
		zap.String("affiliate_id", affiliateID.String()),
		zap.Int64("amount", req.Amount),
	)
	return withdrawal, nil
}

func (s *Service) Approve(ctx context.Context, id string) (domain.Withdrawal, error) {
	return s.decide(ctx, id, domain.StatusApproved)
}

func (s *Service) Reject(ctx context.Context, id string) (domain.Withdrawal, error) {
	return s.decide(ctx, id, domain.StatusRejected)
}

func (s *Service) decide(ctx context.Context, id string, target domain.Status) (domain.Withdrawal, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Withdrawal{}, domain.ErrInvalidID
	}

	var decided domain.Withdrawal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		withdrawal, err := s.repo.LockByID(ctx, tx, parsed)
		if err != nil {
			return err
		}
		if withdrawal == nil {
			return domain.ErrNotFound
		}
		if withdrawal.Status != domain.StatusPending {
			return domain.ErrIllegalTransition
		}

		now := s.clock.Now()
		withdrawal.Status = target
		withdrawal.DecidedAt = &now
		withdrawal.UpdatedAt = now

		if target == domain.StatusRejected {
			if err := s.ledgerSvc.Release(ctx, tx, withdrawal.AffiliateID, withdrawal.RequestedAmount); err != nil {
				return err
			}
		}
		if err := s.repo.Save(ctx, tx, withdrawal); err != nil {
			return err
		}
		decided = *withdrawal
		return nil
	})
	if err != nil {
		return domain.Withdrawal{}, err
	}

	s.log.Info("withdrawal decided",
		zap.String("withdrawal_id", decided.ID.String()),
		zap.String("status", string(decided.Status)),
	)
	return decided, nil
}

func (s *Service) BatchPay(ctx context.Context) (domain.BatchResult, error) {
	batchID := uuid.NewString()
	processedAt := s.clock.Now()
	result := domain.BatchResult{BatchID: batchID}

	chunkSize := s.cfg.BatchSize
	if chunkSize <= 0 {
		chunkSize = 100
	}

	for {
		var paidInChunk []snowflake.ID
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			claimed, err := s.repo.ClaimApproved(ctx, tx, chunkSize)
			if err != nil {
				return err
			}
			for _, withdrawal := range claimed {
				updated, err := s.repo.MarkPaid(ctx, tx, withdrawal.ID, batchID, processedAt)
				if err != nil {
					return err
				}
				if updated {
					paidInChunk = append(paidInChunk, withdrawal.ID)
				}
			}
			return nil
		})
		if err != nil {
			// A failed chunk rolls back whole; earlier chunks stay
			// committed and appear in Paid so the admin sees exactly what
			// settled before the failure.
			s.log.Error("batch pay chunk failed",
				zap.String("batch_id", batchID),
				zap.Int("paid_so_far", len(result.Paid)),
				zap.Error(err),
			)
			if s.metrics != nil {
				s.metrics.WithdrawalsFailed.Inc()
			}
			result.Failed = append(result.Failed, domain.BatchFailure{Reason: err.Error()})
			return result, err
		}

		result.Paid = append(result.Paid, paidInChunk...)
		if len(paidInChunk) < chunkSize {
			break
		}
	}

	if s.metrics != nil {
		s.metrics.WithdrawalsPaid.Add(float64(len(result.Paid)))
	}
	s.log.Info("batch pay completed",
		zap.String("batch_id", batchID),
		zap.Int("paid", len(result.Paid)),
	)
	return result, nil
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error) {
	normalized := domain.Status(strings.ToLower(strings.TrimSpace(status)))
	switch normalized {
	case domain.StatusPending, domain.StatusApproved, domain.StatusPaid, domain.StatusRejected:
	default:
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, s.db, normalized, limit)
}

func (s *Service) ListByAffiliate(ctx context.Context, affiliateID string, limit int) ([]domain.Withdrawal, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(affiliateID))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListByAffiliate(ctx, s.db, parsed, limit)
}
