package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redeviva/redeviva/internal/ledger/domain"
	pkgdb "github.com/redeviva/redeviva/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) LockBalance(ctx context.Context, tx *gorm.DB, affiliateID snowflake.ID) (*domain.Balance, error) {
	// Ensure the row exists before locking so first-ever credits and
	// reservations go through the same path.
	seed := domain.Balance{AffiliateID: affiliateID, UpdatedAt: time.Now().UTC()}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		if !pkgdb.IsDuplicateKeyErr(err) {
			return nil, err
		}
	}

	var balance domain.Balance
	err := tx.WithContext(ctx).Raw(
		`SELECT affiliate_id, available, frozen, total_lifetime, updated_at
		 FROM balances
		 WHERE affiliate_id = ?
		 FOR UPDATE`,
		affiliateID,
	).Scan(&balance).Error
	if err != nil {
		return nil, err
	}
	if balance.AffiliateID == 0 {
		balance = seed
	}
	return &balance, nil
}

func (r *repo) SaveBalance(ctx context.Context, tx *gorm.DB, balance *domain.Balance) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE balances
		 SET available = ?, frozen = ?, total_lifetime = ?, updated_at = ?
		 WHERE affiliate_id = ?`,
		balance.Available,
		balance.Frozen,
		balance.TotalLifetime,
		balance.UpdatedAt,
		balance.AffiliateID,
	).Error
}

func (r *repo) FindBalance(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID) (*domain.Balance, error) {
	var balance domain.Balance
	err := db.WithContext(ctx).Raw(
		`SELECT affiliate_id, available, frozen, total_lifetime, updated_at
		 FROM balances WHERE affiliate_id = ?`,
		affiliateID,
	).Scan(&balance).Error
	if err != nil {
		return nil, err
	}
	if balance.AffiliateID == 0 {
		return nil, nil
	}
	return &balance, nil
}

func (r *repo) InsertEvent(ctx context.Context, tx *gorm.DB, event *domain.CommissionEvent) error {
	return tx.WithContext(ctx).Create(event).Error
}

func (r *repo) FindEventsByPurchase(ctx context.Context, db *gorm.DB, purchaseID string) ([]domain.CommissionEvent, error) {
	var events []domain.CommissionEvent
	err := db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("generation asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) FindEventsByBeneficiary(ctx context.Context, db *gorm.DB, beneficiaryID snowflake.ID, limit int) ([]domain.CommissionEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []domain.CommissionEvent
	err := db.WithContext(ctx).
		Where("beneficiary_id = ?", beneficiaryID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) ClaimMaturedFrozen(ctx context.Context, tx *gorm.DB, before time.Time, limit int) ([]domain.CommissionEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []domain.CommissionEvent
	err := tx.WithContext(ctx).Raw(
		`SELECT id, purchase_id, purchaser_id, beneficiary_id, generation, scope,
		        rule_value, rule_value_kind, base_amount, amount, frozen_until,
		        released_at, created_at
		 FROM commission_events
		 WHERE frozen_until IS NOT NULL AND frozen_until <= ? AND released_at IS NULL
		 ORDER BY frozen_until ASC, id ASC
		 LIMIT ?
		 FOR UPDATE SKIP LOCKED`,
		before,
		limit,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) MarkReleased(ctx context.Context, tx *gorm.DB, eventID snowflake.ID, releasedAt time.Time) (bool, error) {
	result := tx.WithContext(ctx).Exec(
		`UPDATE commission_events
		 SET released_at = ?
		 WHERE id = ? AND released_at IS NULL`,
		releasedAt,
		eventID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
