package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redeviva/redeviva/internal/affiliate"
	affiliatedomain "github.com/redeviva/redeviva/internal/affiliate/domain"
	"github.com/redeviva/redeviva/internal/commission"
	commissiondomain "github.com/redeviva/redeviva/internal/commission/domain"
	"github.com/redeviva/redeviva/internal/commissionrule"
	ruledomain "github.com/redeviva/redeviva/internal/commissionrule/domain"
	"github.com/redeviva/redeviva/internal/config"
	"github.com/redeviva/redeviva/internal/consortium"
	consortiumdomain "github.com/redeviva/redeviva/internal/consortium/domain"
	"github.com/redeviva/redeviva/internal/ledger"
	ledgerdomain "github.com/redeviva/redeviva/internal/ledger/domain"
	"github.com/redeviva/redeviva/internal/lock"
	"github.com/redeviva/redeviva/internal/metrics"
	"github.com/redeviva/redeviva/internal/withdrawal"
	withdrawaldomain "github.com/redeviva/redeviva/internal/withdrawal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	metrics.Module,
	lock.Module,
	affiliate.Module,
	commissionrule.Module,
	ledger.Module,
	commission.Module,
	consortium.Module,
	withdrawal.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	Config        config.Config
	Log           *zap.Logger
	Engine        *gin.Engine
	AffiliateSvc  affiliatedomain.Service
	RuleSvc       ruledomain.Service
	LedgerSvc     ledgerdomain.Service
	CommissionSvc commissiondomain.Service
	ConsortiumSvc consortiumdomain.Service
	WithdrawalSvc withdrawaldomain.Service
}

type Server struct {
	cfg           config.Config
	log           *zap.Logger
	engine        *gin.Engine
	affiliateSvc  affiliatedomain.Service
	ruleSvc       ruledomain.Service
	ledgerSvc     ledgerdomain.Service
	commissionSvc commissiondomain.Service
	consortiumSvc consortiumdomain.Service
	withdrawalSvc withdrawaldomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		cfg:           p.Config,
		log:           p.Log.Named("http.server"),
		engine:        p.Engine,
		affiliateSvc:  p.AffiliateSvc,
		ruleSvc:       p.RuleSvc,
		ledgerSvc:     p.LedgerSvc,
		commissionSvc: p.CommissionSvc,
		consortiumSvc: p.ConsortiumSvc,
		withdrawalSvc: p.WithdrawalSvc,
	}
}

func registerRoutes(s *Server) {
	v1 := s.engine.Group("/v1")

	v1.POST("/webhooks/payment", s.HandlePaymentWebhook)
	v1.GET("/purchases/:id/commissions", s.ListPurchaseCommissions)

	v1.POST("/affiliates", s.CreateAffiliate)
	v1.GET("/affiliates", s.ListAffiliates)
	v1.GET("/affiliates/:id", s.GetAffiliate)
	v1.GET("/affiliates/:id/balance", s.GetAffiliateBalance)
	v1.GET("/affiliates/:id/commissions", s.ListAffiliateCommissions)
	v1.GET("/affiliates/:id/withdrawals", s.ListAffiliateWithdrawals)
	v1.POST("/affiliates/:id/verify", s.VerifyAffiliate)
	v1.POST("/affiliates/:id/block", s.BlockAffiliate)
	v1.POST("/affiliates/:id/unblock", s.UnblockAffiliate)
	v1.POST("/affiliates/:id/deactivate", s.DeactivateAffiliate)

	v1.GET("/commission-rules/:scope", s.ListCommissionRules)
	v1.PUT("/commission-rules/:scope/active-generations", s.SetActiveGenerations)
	v1.PUT("/commission-rules/:scope/:generation", s.UpsertCommissionRule)

	v1.POST("/consortium/groups", s.CreateConsortiumGroup)
	v1.GET("/consortium/groups", s.ListConsortiumGroups)
	v1.GET("/consortium/groups/:id", s.GetConsortiumGroup)
	v1.GET("/consortium/groups/:id/participants", s.ListConsortiumParticipants)
	v1.GET("/consortium/groups/:id/draws", s.ListConsortiumDraws)
	v1.POST("/consortium/groups/:id/join", s.JoinConsortiumGroup)
	v1.POST("/consortium/groups/:id/draw", s.ExecuteConsortiumDraw)
	v1.POST("/consortium/groups/:id/close", s.CloseConsortiumGroup)
	v1.POST("/consortium/participants/:id/default", s.MarkParticipantDefaulted)

	v1.POST("/withdrawals", s.RequestWithdrawal)
	v1.GET("/withdrawals", s.ListWithdrawals)
	v1.POST("/withdrawals/:id/approve", s.ApproveWithdrawal)
	v1.POST("/withdrawals/:id/reject", s.RejectWithdrawal)
	v1.POST("/withdrawals/batch-pay", s.BatchPayWithdrawals)
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
