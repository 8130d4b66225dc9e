package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service owns every Balance mutation in the system. The commission engine
// credits through it and the withdrawal state machine reserves through it;
// nothing else touches balance rows.
type Service interface {
	// Credit adds earned commission. When frozen is true the amount lands in
	// the Frozen bucket, otherwise in Available. TotalLifetime grows either
	// way. Runs inside the caller's transaction.
	Credit(ctx context.Context, tx *gorm.DB, affiliateID snowflake.ID, amount int64, frozen bool) error

	// RecordCommission appends a commission event and applies its credit to
	// the beneficiary balance in one step. The credit lands in Frozen when
	// the event carries a FrozenUntil stamp, otherwise in Available. Runs
	// inside the caller's transaction so a failed cascade rolls back whole.
	RecordCommission(ctx context.Context, tx *gorm.DB, event *CommissionEvent) error

	// Reserve moves amount out of Available ahead of a withdrawal so two
	// concurrent requests cannot spend the same funds. Fails with
	// ErrInsufficientBalance without mutating when Available < amount.
	Reserve(ctx context.Context, tx *gorm.DB, affiliateID snowflake.ID, amount int64) error

	// Release returns a reservation to Available (withdrawal rejected).
	Release(ctx context.Context, tx *gorm.DB, affiliateID snowflake.ID, amount int64) error

	// ReleaseFrozen moves commission events whose holding window elapsed
	// before the given time from Frozen to Available. Returns the number of
	// events released.
	ReleaseFrozen(ctx context.Context, before time.Time) (int, error)

	GetBalance(ctx context.Context, affiliateID snowflake.ID) (Balance, error)
	EventsByPurchase(ctx context.Context, purchaseID string) ([]CommissionEvent, error)
	EventsByBeneficiary(ctx context.Context, beneficiaryID snowflake.ID, limit int) ([]CommissionEvent, error)
}

var (
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrReservationExceeds  = errors.New("reservation_exceeds_reserved")
)
