package service

import (
	"context"
	"errors"
	"strings"

	"genielearn-backend/internal/events"
	"genielearn-backend/internal/models"
	"genielearn-backend/internal/repository"
)

var (
	ErrEmptyContent   = errors.New("message content is empty")
	ErrContentTooLong = errors.New("message content exceeds maximum length")
)

type MessageService interface {
	// Append validates, persists and publishes one chat message. Membership
	// is the caller's concern: the gateway authorizes at connect time, the
	// HTTP fallback authorizes per request.
	Append(ctx context.Context, groupID, senderID, senderName, content string) (*models.MessageResponse, error)
	History(ctx context.Context, groupID string, limit, offset int) ([]models.MessageResponse, error)
}

type messageService struct {
	messages  repository.MessageRepository
	publisher events.Publisher
}

func NewMessageService(messages repository.MessageRepository, publisher events.Publisher) MessageService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &messageService{messages: messages, publisher: publisher}
}

// ValidateContent applies the message content invariants: non-empty after
// trimming, at most MaxMessageLength characters. Returns the trimmed content.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	if len([]rune(trimmed)) > models.MaxMessageLength {
		return "", ErrContentTooLong
	}
	return trimmed, nil
}

func (s *messageService) Append(ctx context.Context, groupID, senderID, senderName, content string) (*models.MessageResponse, error) {
	trimmed, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		GroupID:    groupID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    trimmed,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.publisher.Publish(events.ChatEvent{
		Kind:      events.KindMessagePersisted,
		MessageID: msg.ID,
		GroupID:   msg.GroupID,
		SenderID:  msg.SenderID,
		Timestamp: msg.Timestamp,
	})

	resp := msg.ToResponse()
	return &resp, nil
}

func (s *messageService) History(ctx context.Context, groupID string, limit, offset int) ([]models.MessageResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	msgs, err := s.messages.ListByGroup(ctx, groupID, limit, offset)
	if err != nil {
		return nil, err
	}

	resps := make([]models.MessageResponse, 0, len(msgs))
	for i := range msgs {
		resps = append(resps, msgs[i].ToResponse())
	}
	return resps, nil
}
