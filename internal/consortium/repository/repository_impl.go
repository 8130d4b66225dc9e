package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/redeviva/redeviva/internal/consortium/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertGroup(ctx context.Context, db *gorm.DB, group *domain.Group) error {
	return db.WithContext(ctx).Create(group).Error
}

func (r *repo) FindGroup(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Group, error) {
	var group domain.Group
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, type, max_participants, current_participants, status,
		        created_at, updated_at
		 FROM consortium_groups WHERE id = ?`,
		id,
	).Scan(&group).Error
	if err != nil {
		return nil, err
	}
	if group.ID == 0 {
		return nil, nil
	}
	return &group, nil
}

func (r *repo) LockGroup(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Group, error) {
	var group domain.Group
	err := tx.WithContext(ctx).Raw(
		`SELECT id, name, type, max_participants, current_participants, status,
		        created_at, updated_at
		 FROM consortium_groups
		 WHERE id = ?
		 FOR UPDATE`,
		id,
	).Scan(&group).Error
	if err != nil {
		return nil, err
	}
	if group.ID == 0 {
		return nil, nil
	}
	return &group, nil
}

func (r *repo) SaveGroup(ctx context.Context, tx *gorm.DB, group *domain.Group) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE consortium_groups
		 SET current_participants = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		group.CurrentParticipants,
		group.Status,
		group.UpdatedAt,
		group.ID,
	).Error
}

func (r *repo) ListGroups(ctx context.Context, db *gorm.DB, status domain.GroupStatus) ([]domain.Group, error) {
	var groups []domain.Group
	stmt := db.WithContext(ctx).Model(&domain.Group{})
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	err := stmt.Order("created_at desc, id desc").Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repo) InsertParticipant(ctx context.Context, tx *gorm.DB, participant *domain.Participant) error {
	return tx.WithContext(ctx).Create(participant).Error
}

func (r *repo) FindParticipant(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Participant, error) {
	var participant domain.Participant
	err := db.WithContext(ctx).Raw(
		`SELECT id, group_id, affiliate_id, lucky_number, status, contemplated_at,
		        created_at, updated_at
		 FROM consortium_participants WHERE id = ?`,
		id,
	).Scan(&participant).Error
	if err != nil {
		return nil, err
	}
	if participant.ID == 0 {
		return nil, nil
	}
	return &participant, nil
}

func (r *repo) ListParticipants(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("lucky_number asc").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *repo) UpdateParticipantStatus(ctx context.Context, tx *gorm.DB, participant *domain.Participant) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE consortium_participants
		 SET status = ?, contemplated_at = ?, updated_at = ?
		 WHERE id = ?`,
		participant.Status,
		participant.ContemplatedAt,
		participant.UpdatedAt,
		participant.ID,
	).Error
}

func (r *repo) InsertDraw(ctx context.Context, tx *gorm.DB, draw *domain.Draw) error {
	return tx.WithContext(ctx).Create(draw).Error
}

func (r *repo) FindDrawBySeed(ctx context.Context, db *gorm.DB, groupID snowflake.ID, seedText string) (*domain.Draw, error) {
	var draw domain.Draw
	err := db.WithContext(ctx).Raw(
		`SELECT id, group_id, participant_id, seed_text, seed, winning_number,
		        lucky_number, fallback, explanation, video_url, official_url, drawn_at
		 FROM consortium_draws WHERE group_id = ? AND seed_text = ?`,
		groupID,
		seedText,
	).Scan(&draw).Error
	if err != nil {
		return nil, err
	}
	if draw.ID == 0 {
		return nil, nil
	}
	return &draw, nil
}

func (r *repo) ListDraws(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]domain.Draw, error) {
	var draws []domain.Draw
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("drawn_at desc, id desc").
		Find(&draws).Error
	if err != nil {
		return nil, err
	}
	return draws, nil
}
