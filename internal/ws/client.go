package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"genielearn-backend/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer; generous headroom over the
	// 1000-char content limit plus JSON framing
	maxFrameSize = 8192

	sendBufferSize = 256
)

var ErrClientGone = errors.New("client connection gone")

// Client is one live, authenticated, group-bound connection. It belongs to the
// Registry from registration until the transport closes.
type Client struct {
	id          string
	gateway     *Gateway
	conn        *websocket.Conn
	send        chan []byte
	groupID     string
	userID      string
	displayName string
	closed      int32
	sendClose   sync.Once
}

func newClient(g *Gateway, conn *websocket.Conn, groupID string, ident *session.Identity) *Client {
	return &Client{
		id:          uuid.NewString(),
		gateway:     g,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		groupID:     groupID,
		userID:      ident.UserID,
		displayName: ident.Name,
	}
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) markClosed() {
	atomic.StoreInt32(&c.closed, 1)
}

// closeSend releases the write pump. Callers must serialize with the
// gateway's broadcast lock so the close cannot race an in-flight enqueue.
func (c *Client) closeSend() {
	c.sendClose.Do(func() { close(c.send) })
}

// enqueue hands a frame to the write pump without blocking. A full buffer
// means the peer stopped draining; the client is marked gone, its transport
// closed, and the caller moves on to the next connection.
func (c *Client) enqueue(data []byte) error {
	if c.isClosed() {
		return ErrClientGone
	}
	select {
	case c.send <- data:
		return nil
	default:
		slog.Warn("Send buffer full, dropping client", "clientID", c.id, "userID", c.userID)
		c.markClosed()
		if c.conn != nil {
			c.conn.Close()
		}
		return ErrClientGone
	}
}

func (c *Client) sendEvent(ev interface{}) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal event", "clientID", c.id, "error", err)
		return
	}
	if err := c.enqueue(data); err != nil {
		slog.Debug("Dropped event for gone client", "clientID", c.id)
	}
}

// readPump consumes inbound frames strictly in arrival order; handleMessage
// is called synchronously so two sends from the same connection can never be
// reordered.
func (c *Client) readPump() {
	defer func() {
		c.markClosed()
		c.gateway.dropClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "clientID", c.id, "userID", c.userID, "error", err)
			} else {
				slog.Debug("WebSocket connection closed", "clientID", c.id, "userID", c.userID)
			}
			break
		}

		ev, err := ParseInbound(data)
		if err != nil {
			c.sendEvent(NewErrorEvent("invalid_event", err.Error()))
			continue
		}

		c.gateway.handleMessage(c, ev)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("WebSocket write error", "clientID", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
