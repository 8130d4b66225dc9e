package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/redeviva/redeviva/internal/clock"
	"github.com/redeviva/redeviva/internal/config"
	ledgerdomain "github.com/redeviva/redeviva/internal/ledger/domain"
	withdrawaldomain "github.com/redeviva/redeviva/internal/withdrawal/domain"
)

// Scheduler runs the periodic settlement jobs: releasing frozen commission
// holds once their window elapses, and (when enabled) sweeping approved
// withdrawals into a payout batch.
type Scheduler struct {
	cfg           config.Config
	log           *zap.Logger
	clock         clock.Clock
	ledgerSvc     ledgerdomain.Service
	withdrawalSvc withdrawaldomain.Service
	cron          *cron.Cron
}

func New(cfg config.Config, log *zap.Logger, clk clock.Clock, ledgerSvc ledgerdomain.Service, withdrawalSvc withdrawaldomain.Service) *Scheduler {
	return &Scheduler{
		cfg:           cfg,
		log:           log.Named("scheduler"),
		clock:         clk,
		ledgerSvc:     ledgerSvc,
		withdrawalSvc: withdrawalSvc,
		cron:          cron.New(),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.releaseFrozen); err != nil {
		return err
	}

	if s.cfg.Settlement.AutoBatchPay {
		if _, err := s.cron.AddFunc("0 3 * * *", s.batchPay); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		zap.Bool("auto_batch_pay", s.cfg.Settlement.AutoBatchPay),
		zap.Int("frozen_holding_days", s.cfg.Settlement.FrozenHoldingDays),
	)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) releaseFrozen() {
	if s.cfg.Settlement.FrozenHoldingDays <= 0 {
		return
	}

	released, err := s.ledgerSvc.ReleaseFrozen(context.Background(), s.clock.Now())
	if err != nil {
		s.log.Error("frozen release failed", zap.Error(err))
		return
	}
	if released > 0 {
		s.log.Info("released frozen commissions", zap.Int("events", released))
	}
}

func (s *Scheduler) batchPay() {
	result, err := s.withdrawalSvc.BatchPay(context.Background())
	if err != nil {
		s.log.Error("scheduled batch pay failed",
			zap.String("batch_id", result.BatchID),
			zap.Int("paid", len(result.Paid)),
			zap.Int("failed", len(result.Failed)),
			zap.Error(err),
		)
		return
	}
	if len(result.Paid) > 0 {
		s.log.Info("scheduled batch pay settled",
			zap.String("batch_id", result.BatchID),
			zap.Int("paid", len(result.Paid)),
		)
	}
}
