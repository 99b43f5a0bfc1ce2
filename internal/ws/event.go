package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"genielearn-backend/internal/models"
)

// EventType discriminates the JSON frames exchanged with chat clients.
type EventType string

const (
	EventTypeMessage EventType = "message"
	EventTypeSystem  EventType = "system"
	EventTypeError   EventType = "error"
)

// SystemKind qualifies a system notice.
type SystemKind string

const (
	SystemKindJoin  SystemKind = "join"
	SystemKindLeave SystemKind = "leave"
)

// InboundEvent is the only frame a client may send: a chat message.
type InboundEvent struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
}

// ParseInbound decodes a client frame, rejecting anything that is not a
// well-formed message event.
func ParseInbound(data []byte) (*InboundEvent, error) {
	var ev InboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("malformed event: %w", err)
	}
	if ev.Type != EventTypeMessage {
		return nil, fmt.Errorf("unrecognized event type %q", ev.Type)
	}
	return &ev, nil
}

// MessageEvent is the broadcast form of a persisted message.
type MessageEvent struct {
	Type       EventType `json:"type"`
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewMessageEvent(m *models.MessageResponse) *MessageEvent {
	return &MessageEvent{
		Type:       EventTypeMessage,
		ID:         m.ID,
		Content:    m.Content,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Timestamp:  m.Timestamp,
	}
}

// SystemEvent is an ephemeral join/leave notice. System notices are never
// persisted; a client that was not connected at broadcast time never sees them.
type SystemEvent struct {
	Type      EventType  `json:"type"`
	Kind      SystemKind `json:"kind,omitempty"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewSystemEvent(kind SystemKind, content string) *SystemEvent {
	return &SystemEvent{
		Type:      EventTypeSystem,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// ErrorEvent reports a per-connection failure (validation, persistence). It is
// only ever sent to the connection whose request failed.
type ErrorEvent struct {
	Type    EventType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{Type: EventTypeError, Code: code, Message: message}
}

// DecodeEvent decodes a server frame on the client side. It returns one of
// *MessageEvent, *SystemEvent or *ErrorEvent and rejects unknown types.
func DecodeEvent(data []byte) (interface{}, error) {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed event: %w", err)
	}

	switch head.Type {
	case EventTypeMessage:
		var ev MessageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		return &ev, nil
	case EventTypeSystem:
		var ev SystemEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		return &ev, nil
	case EventTypeError:
		var ev ErrorEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		return &ev, nil
	default:
		return nil, fmt.Errorf("unrecognized event type %q", head.Type)
	}
}
