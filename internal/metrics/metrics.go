package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics exposes the settlement counters published on /metrics.
type Metrics struct {
	CommissionEvents  *prometheus.CounterVec
	CommissionAmount  *prometheus.CounterVec
	DrawsExecuted     *prometheus.CounterVec
	WithdrawalsPaid   prometheus.Counter
	WithdrawalsFailed prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		CommissionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "redeviva_commission_events_total",
			Help: "Commission events credited, by scope.",
		}, []string{"scope"}),
		CommissionAmount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "redeviva_commission_amount_cents_total",
			Help: "Total commission amount credited in cents, by scope.",
		}, []string{"scope"}),
		DrawsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "redeviva_consortium_draws_total",
			Help: "Consortium draws executed, by outcome (direct or fallback).",
		}, []string{"outcome"}),
		WithdrawalsPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redeviva_withdrawals_paid_total",
			Help: "Withdrawals settled by batch pay.",
		}),
		WithdrawalsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "redeviva_withdrawals_batch_failures_total",
			Help: "Withdrawals that failed inside a batch pay run.",
		}),
	}
}

// Module provides the settlement metrics collectors.
var Module = fx.Module("metrics",
	fx.Provide(New),
)
