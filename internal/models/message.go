package models

import (
	"time"
)

// Maximum length of a chat message after trimming.
const MaxMessageLength = 1000

/** -------------------- ENTITIES -------------------- */

// Message is one persisted chat message. Messages are append-only: they are
// never updated and never deleted by the chat path. Seq is a database-assigned
// insertion counter used to break timestamp ties.
type Message struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	GroupID    string    `gorm:"not null;type:uuid;index:idx_messages_group_time,priority:1" json:"group_id"`
	SenderID   string    `gorm:"not null;type:uuid" json:"sender_id"`
	SenderName string    `gorm:"not null" json:"sender_name"`
	Content    string    `gorm:"not null" json:"content"`
	Timestamp  time.Time `gorm:"not null;index:idx_messages_group_time,priority:2" json:"timestamp"`
	Seq        int64     `gorm:"autoIncrement" json:"-"`
}

/** -------------------- DTOs -------------------- */

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// MessageResponse is the wire shape shared by the history endpoint, the send
// fallback response and the realtime broadcast payload.
type MessageResponse struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		GroupID:    m.GroupID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
	}
}
