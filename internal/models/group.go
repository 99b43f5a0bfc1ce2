package models

import (
	"time"

	"gorm.io/gorm"
)

/** -------------------- ENTITIES -------------------- */

// StudyGroup represents a study group. The owner is always a member.
type StudyGroup struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Subject   string         `json:"subject"`
	OwnerID   string         `gorm:"not null;type:uuid" json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Members []*User `gorm:"many2many:group_members" json:"members,omitempty"`
}

/** -------------------- DTOs -------------------- */

type CreateGroupRequest struct {
	Name    string `json:"name" binding:"required"`
	Subject string `json:"subject"`
}

type GroupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupDetailResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Subject   string         `json:"subject"`
	OwnerID   string         `json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
	Members   []UserResponse `json:"members"`
}

func (g *StudyGroup) ToResponse() GroupResponse {
	return GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Subject:   g.Subject,
		OwnerID:   g.OwnerID,
		CreatedAt: g.CreatedAt,
	}
}
