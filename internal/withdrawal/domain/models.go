package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status lifecycle: pending -> approved -> paid, or pending -> rejected.
// paid and rejected are terminal; approved never goes back to pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
	StatusRejected Status = "rejected"
)

// Withdrawal is a payout request. The requested amount is reserved out of the
// affiliate's available balance at creation so concurrent requests cannot
// double-spend; a rejection restores it.
type Withdrawal struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	AffiliateID     snowflake.ID `gorm:"not null;index" json:"affiliate_id"`
	RequestedAmount int64        `gorm:"not null" json:"requested_amount"`
	FeeAmount       int64        `gorm:"not null;default:0" json:"fee_amount"`
	NetAmount       int64        `gorm:"not null" json:"net_amount"`
	DestinationKey  string       `gorm:"not null" json:"destination_key"`
	Status          Status       `gorm:"type:text;not null;index" json:"status"`
	BatchID         *string      `gorm:"index" json:"batch_id,omitempty"`
	RequestedAt     time.Time    `gorm:"not null" json:"requested_at"`
	DecidedAt       *time.Time   `json:"decided_at,omitempty"`
	ProcessedAt     *time.Time   `json:"processed_at,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Withdrawal) TableName() string { return "withdrawals" }
