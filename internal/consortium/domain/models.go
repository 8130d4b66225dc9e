package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// GroupType fixes the seat count for a consortium group.
type GroupType string

const (
	GroupTypeFreeChoice GroupType = "free_choice"
	GroupTypeAppliance  GroupType = "appliance"
)

// DefaultSeats returns the seat count for a group type.
func (t GroupType) DefaultSeats() int {
	switch t {
	case GroupTypeAppliance:
		return 18
	default:
		return 12
	}
}

// GroupStatus lifecycle: forming -> active -> finished. No transition skips
// a state.
type GroupStatus string

const (
	GroupStatusForming  GroupStatus = "forming"
	GroupStatusActive   GroupStatus = "active"
	GroupStatusFinished GroupStatus = "finished"
)

// ParticipantStatus lifecycle: active -> contemplated | defaulted.
type ParticipantStatus string

const (
	ParticipantStatusActive       ParticipantStatus = "active"
	ParticipantStatusContemplated ParticipantStatus = "contemplated"
	ParticipantStatusDefaulted    ParticipantStatus = "defaulted"
)

type Group struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                string       `gorm:"not null" json:"name"`
	Type                GroupType    `gorm:"type:text;not null" json:"type"`
	MaxParticipants     int          `gorm:"not null" json:"max_participants"`
	CurrentParticipants int          `gorm:"not null;default:0" json:"current_participants"`
	Status              GroupStatus  `gorm:"type:text;not null" json:"status"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Group) TableName() string { return "consortium_groups" }

type Participant struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	GroupID        snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_consortium_participants_group_number,priority:1" json:"group_id"`
	AffiliateID    snowflake.ID      `gorm:"not null;index" json:"affiliate_id"`
	LuckyNumber    int               `gorm:"not null;uniqueIndex:ux_consortium_participants_group_number,priority:2" json:"lucky_number"`
	Status         ParticipantStatus `gorm:"type:text;not null" json:"status"`
	ContemplatedAt *time.Time        `json:"contemplated_at,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Participant) TableName() string { return "consortium_participants" }

// Draw is the append-only record of one contemplation. SeedText keeps the
// literal lottery result string so the computation can be replayed; a draw is
// never edited, only superseded by a new draw for a later period.
type Draw struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	GroupID       snowflake.ID `gorm:"not null;index;uniqueIndex:ux_consortium_draws_group_seed,priority:1" json:"group_id"`
	ParticipantID snowflake.ID `gorm:"not null" json:"participant_id"`
	SeedText      string       `gorm:"not null;uniqueIndex:ux_consortium_draws_group_seed,priority:2" json:"seed_text"`
	Seed          uint64       `gorm:"not null" json:"seed"`
	WinningNumber int          `gorm:"not null" json:"winning_number"`
	LuckyNumber   int          `gorm:"not null" json:"lucky_number"`
	Fallback      bool         `gorm:"not null;default:false" json:"fallback"`
	Explanation   string       `gorm:"type:text;not null" json:"explanation"`
	VideoURL      string       `json:"video_url,omitempty"`
	OfficialURL   string       `json:"official_url,omitempty"`
	DrawnAt       time.Time    `gorm:"not null" json:"drawn_at"`
}

// TableName sets the database table name.
func (Draw) TableName() string { return "consortium_draws" }
