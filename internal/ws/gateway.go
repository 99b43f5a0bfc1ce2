package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"genielearn-backend/internal/models"
	"genielearn-backend/internal/service"
	"genielearn-backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Close codes sent when the handshake is rejected.
const (
	CloseUnauthenticated = 4001
	CloseForbidden       = 4003
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Authorizer confirms that a user belongs to a group.
type Authorizer interface {
	EnsureMember(ctx context.Context, groupID, userID string) error
}

// Appender validates and persists one chat message.
type Appender interface {
	Append(ctx context.Context, groupID, senderID, senderName, content string) (*models.MessageResponse, error)
}

// Presence mirrors connection state into an external presence store. Optional.
type Presence interface {
	SetUserOnline(ctx context.Context, groupID, userID string) error
	SetUserOffline(ctx context.Context, groupID, userID string) error
}

// Gateway turns raw WebSocket connections into authenticated, group-scoped
// chat participants and fans persisted messages out to every live connection
// of the target group.
type Gateway struct {
	registry *Registry
	sessions session.Validator
	groups   Authorizer
	messages Appender
	presence Presence

	// broadcastMu serializes fan-outs so every connection observes persisted
	// messages in one global order.
	broadcastMu sync.Mutex
}

func NewGateway(registry *Registry, sessions session.Validator, groups Authorizer, messages Appender, presence Presence) *Gateway {
	return &Gateway{
		registry: registry,
		sessions: sessions,
		groups:   groups,
		messages: messages,
		presence: presence,
	}
}

// HandleConnection runs the connection state machine: upgrade, authenticate
// the credential from the query string, authorize group membership, then
// register and start the pumps. Rejections close the socket with an explicit
// reason so the client can tell "log in again" from "not a member".
func (g *Gateway) HandleConnection(c *gin.Context) {
	groupID := c.Param("groupId")
	token := c.Query("token")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	ident, err := g.sessions.Validate(token)
	if err != nil {
		closeWithReason(conn, CloseUnauthenticated, "unauthenticated")
		return
	}

	if err := g.groups.EnsureMember(c.Request.Context(), groupID, ident.UserID); err != nil {
		closeWithReason(conn, CloseForbidden, "forbidden")
		return
	}

	client := newClient(g, conn, groupID, ident)
	g.register(client)

	go client.writePump()
	go client.readPump()
}

func (g *Gateway) register(client *Client) {
	g.registry.Add(client)
	slog.Info("Chat connection opened", "clientID", client.id, "userID", client.userID, "groupID", client.groupID)

	if g.presence != nil {
		if err := g.presence.SetUserOnline(context.Background(), client.groupID, client.userID); err != nil {
			slog.Error("Failed to record presence", "userID", client.userID, "error", err)
		}
	}

	// Join notices go to the members already connected, not the joiner.
	notice := NewSystemEvent(SystemKindJoin, fmt.Sprintf("%s joined the chat", client.displayName))
	g.broadcastEvent(client.groupID, notice, client)
}

// dropClient deregisters the connection and tells the remaining members.
// Safe to call when the client never made it into the registry.
func (g *Gateway) dropClient(client *Client) {
	if !g.registry.Contains(client) {
		return
	}
	g.registry.Remove(client)
	slog.Info("Chat connection closed", "clientID", client.id, "userID", client.userID, "groupID", client.groupID)

	// Release the write pump right away instead of waiting for a ping timeout.
	// Serialized with broadcasts so the close cannot race an enqueue.
	g.broadcastMu.Lock()
	client.markClosed()
	client.closeSend()
	g.broadcastMu.Unlock()

	if g.presence != nil {
		if err := g.presence.SetUserOffline(context.Background(), client.groupID, client.userID); err != nil {
			slog.Error("Failed to clear presence", "userID", client.userID, "error", err)
		}
	}

	notice := NewSystemEvent(SystemKindLeave, fmt.Sprintf("%s left the chat", client.displayName))
	g.broadcastEvent(client.groupID, notice, nil)
}

// handleMessage persists an inbound send and broadcasts the result to the
// whole group, the sender included; the sender's own copy is what lets the
// client confirm its optimistic entry. Failures stay on the originating
// connection and never close it.
func (g *Gateway) handleMessage(client *Client, ev *InboundEvent) {
	msg, err := g.messages.Append(context.Background(), client.groupID, client.userID, client.displayName, ev.Content)
	if err != nil {
		if errors.Is(err, service.ErrEmptyContent) || errors.Is(err, service.ErrContentTooLong) {
			client.sendEvent(NewErrorEvent("validation_failed", err.Error()))
		} else {
			slog.Error("Failed to persist message", "clientID", client.id, "groupID", client.groupID, "error", err)
			client.sendEvent(NewErrorEvent("persistence_failed", "message could not be saved"))
		}
		return
	}

	g.broadcastEvent(client.groupID, NewMessageEvent(msg), nil)
}

// BroadcastMessage fans out a message persisted outside the socket path (the
// HTTP send fallback) to the group's live connections.
func (g *Gateway) BroadcastMessage(msg *models.MessageResponse) {
	g.broadcastEvent(msg.GroupID, NewMessageEvent(msg), nil)
}

// broadcastEvent delivers one event to every connection currently registered
// for the group, minus exclude. A failing connection is skipped, never allowed
// to abort delivery to the rest.
func (g *Gateway) broadcastEvent(groupID string, ev interface{}, exclude *Client) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal broadcast event", "groupID", groupID, "error", err)
		return
	}

	g.broadcastMu.Lock()
	defer g.broadcastMu.Unlock()

	for _, conn := range g.registry.Connections(groupID) {
		if conn == exclude {
			continue
		}
		if err := conn.enqueue(data); err != nil {
			slog.Debug("Skipping gone connection during broadcast", "clientID", conn.id, "groupID", groupID)
		}
	}
}

func closeWithReason(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}
