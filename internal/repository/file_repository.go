package repository

import (
	"context"

	"genielearn-backend/internal/models"

	"gorm.io/gorm"
)

type FileRepository interface {
	Create(ctx context.Context, file *models.FileRecord) error
	FindByID(ctx context.Context, id string) (*models.FileRecord, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.FileRecord, error)
}

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, file *models.FileRecord) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *fileRepository) FindByID(ctx context.Context, id string) (*models.FileRecord, error) {
	var file models.FileRecord
	err := r.db.WithContext(ctx).First(&file, "id = ?", id).Error
	return &file, err
}

func (r *fileRepository) ListByGroup(ctx context.Context, groupID string) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}
