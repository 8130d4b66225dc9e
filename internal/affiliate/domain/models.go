package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Affiliate is a member of the sales network. SponsorID points at the direct
// upline and is set once at registration; it is never updated afterwards, so
// the sponsor graph stays a forest by construction.
type Affiliate struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	SponsorID     *snowflake.ID     `gorm:"index" json:"sponsor_id,omitempty"`
	Name          string            `gorm:"not null" json:"name"`
	Email         string            `gorm:"not null;uniqueIndex" json:"email"`
	IsActive      bool              `gorm:"not null;default:true" json:"is_active"`
	IsVerified    bool              `gorm:"not null;default:false" json:"is_verified"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	DeactivatedAt *time.Time        `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Affiliate) TableName() string { return "affiliates" }

// Ancestor is one step of an upline walk.
type Ancestor struct {
	Generation int
	Affiliate  Affiliate
}
