package repository

import (
	"context"

	"github.com/redeviva/redeviva/internal/commissionrule/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindScope(ctx context.Context, db *gorm.DB, scope domain.Scope) (*domain.CommissionScope, error) {
	var row domain.CommissionScope
	err := db.WithContext(ctx).Raw(
		`SELECT scope, active_generations, updated_at
		 FROM commission_scopes WHERE scope = ?`,
		scope,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Scope == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) UpsertScope(ctx context.Context, db *gorm.DB, scope *domain.CommissionScope) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{"active_generations", "updated_at"}),
	}).Create(scope).Error
}

func (r *repo) FindRules(ctx context.Context, db *gorm.DB, scope domain.Scope) ([]domain.CommissionRule, error) {
	var rules []domain.CommissionRule
	err := db.WithContext(ctx).
		Where("scope = ?", scope).
		Order("generation asc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) UpsertRule(ctx context.Context, db *gorm.DB, rule *domain.CommissionRule) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "generation"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "value_kind", "updated_at"}),
	}).Create(rule).Error
}
