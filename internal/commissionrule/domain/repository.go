package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindScope(ctx context.Context, db *gorm.DB, scope Scope) (*CommissionScope, error)
	UpsertScope(ctx context.Context, db *gorm.DB, scope *CommissionScope) error
	FindRules(ctx context.Context, db *gorm.DB, scope Scope) ([]CommissionRule, error)
	UpsertRule(ctx context.Context, db *gorm.DB, rule *CommissionRule) error
}
