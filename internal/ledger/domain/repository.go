package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// LockBalance loads the affiliate's balance row FOR UPDATE, creating a
	// zero row first when none exists. Must run inside a transaction.
	LockBalance(ctx context.Context, tx *gorm.DB, affiliateID snowflake.ID) (*Balance, error)
	SaveBalance(ctx context.Context, tx *gorm.DB, balance *Balance) error
	FindBalance(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID) (*Balance, error)

	InsertEvent(ctx context.Context, tx *gorm.DB, event *CommissionEvent) error
	FindEventsByPurchase(ctx context.Context, db *gorm.DB, purchaseID string) ([]CommissionEvent, error)
	FindEventsByBeneficiary(ctx context.Context, db *gorm.DB, beneficiaryID snowflake.ID, limit int) ([]CommissionEvent, error)
	// ClaimMaturedFrozen selects matured, unreleased events with
	// FOR UPDATE SKIP LOCKED so overlapping release runs never pick up the
	// same rows. Must run inside a transaction.
	ClaimMaturedFrozen(ctx context.Context, tx *gorm.DB, before time.Time, limit int) ([]CommissionEvent, error)
	// MarkReleased stamps the event if it is still unreleased and reports
	// whether this caller won the claim.
	MarkReleased(ctx context.Context, tx *gorm.DB, eventID snowflake.ID, releasedAt time.Time) (bool, error)
}
