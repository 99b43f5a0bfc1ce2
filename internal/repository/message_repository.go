package repository

import (
	"context"
	"time"

	"genielearn-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create assigns the message id and server timestamp before inserting.
func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Timestamp = time.Now().UTC()
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByGroup returns messages in ascending time order; ties are broken by
// insertion order.
func (r *messageRepository) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("timestamp ASC, seq ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	return msgs, err
}
