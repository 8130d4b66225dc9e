package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/redeviva/redeviva/internal/commissionrule/domain"
)

// Balance is the per-affiliate ledger row. Available is withdrawable now,
// Frozen is earned but still inside the holding window, TotalLifetime is the
// monotonically non-decreasing audit figure. Mutations happen only under a
// row lock inside a caller-owned transaction.
type Balance struct {
	AffiliateID   snowflake.ID `gorm:"primaryKey" json:"affiliate_id"`
	Available     int64        `gorm:"not null;default:0" json:"available"`
	Frozen        int64        `gorm:"not null;default:0" json:"frozen"`
	TotalLifetime int64        `gorm:"not null;default:0" json:"total_lifetime"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Balance) TableName() string { return "balances" }

// CommissionEvent records one upline credit for one purchase. The rule values
// are snapshotted at credit time; later rule-table edits never change what a
// historical event says it applied.
type CommissionEvent struct {
	ID            snowflake.ID         `gorm:"primaryKey" json:"id"`
	PurchaseID    string               `gorm:"not null;uniqueIndex:ux_commission_events_purchase_gen,priority:1" json:"purchase_id"`
	PurchaserID   snowflake.ID         `gorm:"not null;index" json:"purchaser_id"`
	BeneficiaryID snowflake.ID         `gorm:"not null;index" json:"beneficiary_id"`
	Generation    int                  `gorm:"not null;uniqueIndex:ux_commission_events_purchase_gen,priority:2" json:"generation"`
	Scope         ruledomain.Scope     `gorm:"type:text;not null" json:"scope"`
	RuleValue     int64                `gorm:"not null" json:"rule_value"`
	RuleValueKind ruledomain.ValueKind `gorm:"type:text;not null" json:"rule_value_kind"`
	BaseAmount    int64                `gorm:"not null" json:"base_amount"`
	Amount        int64                `gorm:"not null" json:"amount"`
	FrozenUntil   *time.Time           `gorm:"index" json:"frozen_until,omitempty"`
	ReleasedAt    *time.Time           `json:"released_at,omitempty"`
	CreatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CommissionEvent) TableName() string { return "commission_events" }
