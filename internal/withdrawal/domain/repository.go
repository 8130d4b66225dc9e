package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, withdrawal *Withdrawal) error
	// LockByID loads the withdrawal FOR UPDATE for a transition.
	LockByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Withdrawal, error)
	Save(ctx context.Context, tx *gorm.DB, withdrawal *Withdrawal) error
	ListByStatus(ctx context.Context, db *gorm.DB, status Status, limit int) ([]Withdrawal, error)
	ListByAffiliate(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID, limit int) ([]Withdrawal, error)
	// ClaimApproved locks up to limit approved rows, skipping rows another
	// batch worker already holds.
	ClaimApproved(ctx context.Context, tx *gorm.DB, limit int) ([]Withdrawal, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, id snowflake.ID, batchID string, processedAt time.Time) (bool, error)
}
