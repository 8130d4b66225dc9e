package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertGroup(ctx context.Context, db *gorm.DB, group *Group) error
	FindGroup(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Group, error)
	// LockGroup loads the group row FOR UPDATE; the draw and join paths
	// serialize on it.
	LockGroup(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Group, error)
	SaveGroup(ctx context.Context, tx *gorm.DB, group *Group) error
	ListGroups(ctx context.Context, db *gorm.DB, status GroupStatus) ([]Group, error)

	InsertParticipant(ctx context.Context, tx *gorm.DB, participant *Participant) error
	FindParticipant(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Participant, error)
	ListParticipants(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]Participant, error)
	UpdateParticipantStatus(ctx context.Context, tx *gorm.DB, participant *Participant) error

	InsertDraw(ctx context.Context, tx *gorm.DB, draw *Draw) error
	FindDrawBySeed(ctx context.Context, db *gorm.DB, groupID snowflake.ID, seedText string) (*Draw, error)
	ListDraws(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]Draw, error)
}
