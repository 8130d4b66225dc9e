package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliatedomain "github.com/redeviva/redeviva/internal/affiliate/domain"
	"github.com/redeviva/redeviva/internal/clock"
	"github.com/redeviva/redeviva/internal/commission/domain"
	ruledomain "github.com/redeviva/redeviva/internal/commissionrule/domain"
	"github.com/redeviva/redeviva/internal/config"
	ledgerdomain "github.com/redeviva/redeviva/internal/ledger/domain"
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
	AffiliateSvc affiliatedomain.Service
	RuleSvc      ruledomain.Service
	LedgerSvc    ledgerdomain.Service
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	cfg          config.SettlementConfig
	affiliateSvc affiliatedomain.Service
	ruleSvc      ruledomain.Service
	ledgerSvc    ledgerdomain.Service
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("commission.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		cfg:          p.Config.Settlement,
		affiliateSvc: p.AffiliateSvc,
		ruleSvc:      p.RuleSvc,
		ledgerSvc:    p.LedgerSvc,
		metrics:      p.Metrics,
	}
}

func (s *Service) ProcessConfirmedPurchase(ctx context.Context, req domain.ProcessPurchaseRequest) (domain.ProcessPurchaseResult, error) {
	purchaseID := strings.TrimSpace(req.PurchaseID)
	if purchaseID == "" {
		return domain.ProcessPurchaseResult{}, domain.ErrInvalidPurchaseID
	}
	if req.BaseAmount <= 0 {
		return domain.ProcessPurchaseResult{}, domain.ErrInvalidBaseAmount
	}

	// Unknown scope is a configuration error the admin has to fix; it never
	// silently defaults to zero credits.
	ruleSet, err := s.ruleSvc.RuleSet(ctx, ruledomain.Scope(strings.TrimSpace(req.Scope)))
	if err != nil {
		return domain.ProcessPurchaseResult{}, err
	}

	// Payment webhooks retry delivery; a purchase that already produced
	// events is a benign no-op returning the prior result.
	existing, err := s.ledgerSvc.EventsByPurchase(ctx, purchaseID)
	if err != nil {
		return domain.ProcessPurchaseResult{}, err
	}
	if len(existing) > 0 {
		return domain.ProcessPurchaseResult{
			PurchaseID:       purchaseID,
			AlreadyProcessed: true,
			Credits:          existing,
		}, nil
	}

	purchaserID, err := snowflake.ParseString(strings.TrimSpace(req.AffiliateID))
	if err != nil || purchaserID == 0 {
		return domain.ProcessPurchaseResult{}, affiliatedomain.ErrInvalidID
	}

	ancestors, err := s.affiliateSvc.Upline(ctx, purchaserID, ruleSet.ActiveGenerations)
	if err != nil {
		if err == affiliatedomain.ErrNotFound {
			// Purchase not affiliate-attributed; nothing to credit.
			s.log.Info("purchase has no affiliate record, skipping cascade",
				zap.String("purchase_id", purchaseID),
			)
			return domain.ProcessPurchaseResult{PurchaseID: purchaseID}, nil
		}
		return domain.ProcessPurchaseResult{}, err
	}

	now := s.clock.Now()
	var frozenUntil *time.Time
	if s.cfg.FrozenHoldingDays > 0 {
		t := now.AddDate(0, 0, s.cfg.FrozenHoldingDays)
		frozenUntil = &t
	}

	events := make([]ledgerdomain.CommissionEvent, 0, len(ancestors))
	for _, ancestor := range ancestors {
		rule, ok := ruleSet.RuleFor(ancestor.Generation)
		if !ok {
			continue
		}
		// An inactive ancestor's slot is simply not paid; the credit is not
		// passed through to the next generation.
		if !ancestor.Affiliate.IsActive {
			continue
		}

		amount := creditAmount(rule, req.BaseAmount)
		if amount <= 0 {
			continue
		}

		events = append(events, ledgerdomain.CommissionEvent{
			ID:            s.genID.Generate(),
			PurchaseID:    purchaseID,
			PurchaserID:   purchaserID,
			BeneficiaryID: ancestor.Affiliate.ID,
			Generation:    ancestor.Generation,
			Scope:         ruleSet.Scope,
			RuleValue:     rule.Value,
			RuleValueKind: rule.ValueKind,
			BaseAmount:    req.BaseAmount,
			Amount:        amount,
			FrozenUntil:   frozenUntil,
			CreatedAt:     now,
		})
	}

	if len(events) == 0 {
		return domain.ProcessPurchaseResult{PurchaseID: purchaseID}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range events {
			if err := s.ledgerSvc.RecordCommission(ctx, tx, &events[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// A concurrent delivery of the same purchase won the unique index on
		// (purchase_id, generation); fold into the idempotent path.
		if pkgdb.IsDuplicateKeyErr(err) {
			prior, lookupErr := s.ledgerSvc.EventsByPurchase(ctx, purchaseID)
			if lookupErr != nil {
				return domain.ProcessPurchaseResult{}, lookupErr
			}
			return domain.ProcessPurchaseResult{
				PurchaseID:       purchaseID,
				AlreadyProcessed: true,
				Credits:          prior,
			}, nil
		}
		return domain.ProcessPurchaseResult{}, err
	}

	if s.metrics != nil {
		scope := string(ruleSet.Scope)
		for _, event := range events {
			s.metrics.CommissionEvents.WithLabelValues(scope).Inc()
			s.metrics.CommissionAmount.WithLabelValues(scope).Add(float64(event.Amount))
		}
	}
	s.log.Info("commission cascade applied",
		zap.String("purchase_id", purchaseID),
		zap.String("scope", string(ruleSet.Scope)),
		zap.Int("credits", len(events)),
	)

	return domain.ProcessPurchaseResult{
		PurchaseID: purchaseID,
		Credits:    events,
	}, nil
}

func (s *Service) EventsByPurchase(ctx context.Context, purchaseID string) ([]ledgerdomain.CommissionEvent, error) {
	return s.ledgerSvc.EventsByPurchase(ctx, strings.TrimSpace(purchaseID))
}

func creditAmount(rule ruledomain.CommissionRule, baseAmount int64) int64 {
	switch rule.ValueKind {
	case ruledomain.ValueKindFixed:
		return rule.Value
	case ruledomain.ValueKindPercentage:
		return baseAmount * rule.Value / 100
	default:
		return 0
	}
}
