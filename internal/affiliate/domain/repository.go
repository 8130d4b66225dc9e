package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/redeviva/redeviva/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, affiliate *Affiliate) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Affiliate, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Affiliate, error)
	UpdateFlags(ctx context.Context, db *gorm.DB, affiliate *Affiliate) error
	CountDownline(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
