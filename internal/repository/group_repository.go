package repository

import (
	"context"

	"genielearn-backend/internal/models"

	"gorm.io/gorm"
)

type GroupRepository interface {
	Create(ctx context.Context, group *models.StudyGroup, owner *models.User) error
	FindByID(ctx context.Context, id string) (*models.StudyGroup, error)
	ListByUser(ctx context.Context, userID string) ([]models.StudyGroup, error)
	AddMember(ctx context.Context, groupID string, user *models.User) error
	RemoveMember(ctx context.Context, groupID string, user *models.User) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *models.StudyGroup, owner *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Model(group).Association("Members").Append(owner)
	})
}

func (r *groupRepository) FindByID(ctx context.Context, id string) (*models.StudyGroup, error) {
	var group models.StudyGroup
	err := r.db.WithContext(ctx).Preload("Members").First(&group, "id = ?", id).Error
	return &group, err
}

func (r *groupRepository) ListByUser(ctx context.Context, userID string) ([]models.StudyGroup, error) {
	var groups []models.StudyGroup
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members gm ON gm.study_group_id = study_groups.id").
		Where("gm.user_id = ?", userID).
		Find(&groups).Error
	return groups, err
}

func (r *groupRepository) AddMember(ctx context.Context, groupID string, user *models.User) error {
	return r.db.WithContext(ctx).
		Model(&models.StudyGroup{ID: groupID}).
		Association("Members").
		Append(user)
}

func (r *groupRepository) RemoveMember(ctx context.Context, groupID string, user *models.User) error {
	return r.db.WithContext(ctx).
		Model(&models.StudyGroup{ID: groupID}).
		Association("Members").
		Delete(user)
}

func (r *groupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("group_members").
		Where("study_group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *groupRepository) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("group_members").
		Where("study_group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}
