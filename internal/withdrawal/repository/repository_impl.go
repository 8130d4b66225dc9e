package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redeviva/redeviva/internal/withdrawal/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, withdrawal *domain.Withdrawal) error {
	return tx.WithContext(ctx).Create(withdrawal).Error
}

func (r *repo) LockByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Withdrawal, error) {
	var withdrawal domain.Withdrawal
	err := tx.WithContext(ctx).Raw(
		`SELECT id, affiliate_id, requested_amount, fee_amount, net_amount,
		        destination_key, status, batch_id, requested_at, decided_at,
		        processed_at, created_at, updated_at
		 FROM withdrawals
		 WHERE id = ?
		 FOR UPDATE`,
		id,
	).Scan(&withdrawal).Error
	if err != nil {
		return nil, err
	}
	if withdrawal.ID == 0 {
		return nil, nil
	}
	return &withdrawal, nil
}

func (r *repo) Save(ctx context.Context, tx *gorm.DB, withdrawal *domain.Withdrawal) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE withdrawals
		 SET status = ?, batch_id = ?, decided_at = ?, processed_at = ?, updated_at = ?
		 WHERE id = ?`,
		withdrawal.Status,
		withdrawal.BatchID,
		withdrawal.DecidedAt,
		withdrawal.ProcessedAt,
		withdrawal.UpdatedAt,
		withdrawal.ID,
	).Error
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status domain.Status, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 100
	}
	var withdrawals []domain.Withdrawal
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("requested_at asc, id asc").
		Limit(limit).
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *repo) ListByAffiliate(ctx context.Context, db *gorm.DB, affiliateID snowflake.ID, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 100
	}
	var withdrawals []domain.Withdrawal
	err := db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID).
		Order("requested_at desc, id desc").
		Limit(limit).
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *repo) ClaimApproved(ctx context.Context, tx *gorm.DB, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 100
	}
	var withdrawals []domain.Withdrawal
	err := tx.WithContext(ctx).Raw(
		`SELECT id, affiliate_id, requested_amount, fee_amount, net_amount,
		        destination_key, status, batch_id, requested_at, decided_at,
		        processed_at, created_at, updated_at
		 FROM withdrawals
		 WHERE status = ?
		 ORDER BY requested_at ASC, id ASC
		 LIMIT ?
		 FOR UPDATE SKIP LOCKED`,
		domain.StatusApproved,
		limit,
	).Scan(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *repo) MarkPaid(ctx context.Context, tx *gorm.DB, id snowflake.ID, batchID string, processedAt time.Time) (bool, error) {
	result := tx.WithContext(ctx).Exec(
		`UPDATE withdrawals
		 SET status = ?, batch_id = ?, processed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusPaid,
		batchID,
		processedAt,
		processedAt,
		id,
		domain.StatusApproved,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
