package models

import (
	"time"

	"gorm.io/gorm"
)

/** -------------------- ENTITIES -------------------- */

// FileRecord is the metadata row for a shared file; the bytes live in the
// blob store under ObjectKey.
type FileRecord struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	GroupID     string         `gorm:"not null;type:uuid;index" json:"group_id"`
	UploaderID  string         `gorm:"not null;type:uuid" json:"uploader_id"`
	Name        string         `gorm:"not null" json:"name"`
	ObjectKey   string         `gorm:"not null" json:"-"`
	ContentType string         `json:"content_type"`
	Size        int64          `json:"size"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

/** -------------------- DTOs -------------------- */

type FileResponse struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	UploaderID  string    `json:"uploader_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

func (f *FileRecord) ToResponse() FileResponse {
	return FileResponse{
		ID:          f.ID,
		GroupID:     f.GroupID,
		UploaderID:  f.UploaderID,
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		CreatedAt:   f.CreatedAt,
	}
}
