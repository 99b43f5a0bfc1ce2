package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"genielearn-backend/internal/models"
	"genielearn-backend/internal/ws"

	"github.com/gorilla/websocket"
)

const (
	historyBatchSize = 100

	// Hard cap on the history load loop, independent of server cooperation.
	historyHardCap = 5000

	// Polling cadence when the live channel is unavailable.
	pollInterval = 5 * time.Second
)

var ErrNoSession = errors.New("no verified session")

// Client holds one group's chat state for one user: the reconciled timeline,
// a live gateway connection when one can be kept open, and the HTTP fallback
// used for history and sends.
type Client struct {
	baseURL     string
	token       string
	groupID     string
	userID      string
	displayName string

	httpc    *http.Client
	dialer   *websocket.Dialer
	timeline *Timeline

	mu         sync.Mutex
	conn       *websocket.Conn
	pollCancel context.CancelFunc

	// OnSystem and OnError receive push events that are not chat messages.
	// Optional; both may be nil.
	OnSystem func(ws.SystemEvent)
	OnError  func(ws.ErrorEvent)
}

func New(baseURL, token, groupID, userID, displayName string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		groupID:     groupID,
		userID:      userID,
		displayName: displayName,
		httpc:       &http.Client{Timeout: 15 * time.Second},
		dialer:      websocket.DefaultDialer,
		timeline:    NewTimeline(),
	}
}

func (c *Client) Timeline() *Timeline {
	return c.timeline
}

// Start loads history and then brings up the live channel. A live-channel
// failure is non-fatal: the client degrades to polling so messages keep
// appearing either way.
func (c *Client) Start(ctx context.Context) error {
	if c.token == "" {
		return ErrNoSession
	}

	if err := c.LoadHistory(ctx); err != nil {
		return err
	}

	if err := c.Connect(ctx); err != nil {
		slog.Warn("Live channel unavailable, falling back to polling", "groupID", c.groupID, "error", err)
		c.startPolling()
	}
	return nil
}

// LoadHistory pages through the group's messages in ascending time order
// until a short page or the hard cap. Every row goes through Apply, so
// reloading over a gap never duplicates anything.
func (c *Client) LoadHistory(ctx context.Context) error {
	offset := 0
	for offset < historyHardCap {
		limit := historyBatchSize
		if rem := historyHardCap - offset; rem < limit {
			limit = rem
		}

		batch, err := c.fetchHistory(ctx, limit, offset)
		if err != nil {
			return err
		}
		for _, m := range batch {
			c.timeline.Apply(m)
		}

		if len(batch) < limit {
			return nil
		}
		offset += len(batch)
	}
	return nil
}

// Connect opens the one live connection for this group, replacing any
// previous one, and stops polling if it was running.
func (c *Client) Connect(ctx context.Context) error {
	wsURL, err := c.gatewayURL()
	if err != nil {
		return err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to open live channel: %w", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Reconnect tears down the current subscription and opens a fresh one. It
// does not replay missed messages; call LoadHistory afterwards to patch any
// gap (Apply makes that safe).
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	return c.Connect(ctx)
}

// Live reports whether a gateway connection is currently held.
func (c *Client) Live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send submits a message optimistically: the entry appears in the timeline
// immediately and the composer can be cleared right away. On failure the
// entry is rolled back and the error returned so the caller can restore the
// text; on success the pushed broadcast confirms the entry.
func (c *Client) Send(ctx context.Context, content string) error {
	// The server persists trimmed content, so the optimistic entry must hold
	// the trimmed form too or the pushed confirmation never matches it.
	content = strings.TrimSpace(content)
	localID := c.timeline.AddOptimistic(c.userID, c.displayName, content)

	msg, err := c.postMessage(ctx, content)
	if err != nil {
		c.timeline.RemoveOptimistic(localID)
		return err
	}

	// With the live channel down there is no push coming; the HTTP response
	// stands in for it.
	if !c.Live() {
		c.timeline.Apply(*msg)
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
			c.mu.Unlock()
			// Dropped, not replaced: keep messages flowing via polling until
			// the caller reconnects.
			c.startPolling()
			return
		}
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Debug("Live channel closed", "groupID", c.groupID, "error", err)
			return
		}

		ev, err := ws.DecodeEvent(data)
		if err != nil {
			slog.Warn("Ignoring undecodable push event", "groupID", c.groupID, "error", err)
			continue
		}

		switch e := ev.(type) {
		case *ws.MessageEvent:
			c.timeline.Apply(models.MessageResponse{
				ID:         e.ID,
				GroupID:    c.groupID,
				SenderID:   e.SenderID,
				SenderName: e.SenderName,
				Content:    e.Content,
				Timestamp:  e.Timestamp,
			})
		case *ws.SystemEvent:
			if c.OnSystem != nil {
				c.OnSystem(*e)
			}
		case *ws.ErrorEvent:
			if c.OnError != nil {
				c.OnError(*e)
			}
		}
	}
}

func (c *Client) startPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pollCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.LoadHistory(ctx); err != nil {
					slog.Debug("History poll failed", "groupID", c.groupID, "error", err)
				}
			}
		}
	}()
}

func (c *Client) gatewayURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = fmt.Sprintf("/api/v1/groups/%s/ws", c.groupID)
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String(), nil
}

func (c *Client) fetchHistory(ctx context.Context, limit, offset int) ([]models.MessageResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/groups/%s/messages?limit=%d&offset=%d", c.baseURL, c.groupID, limit, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var batch []models.MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return batch, nil
}

func (c *Client) postMessage(ctx context.Context, content string) (*models.MessageResponse, error) {
	body, err := json.Marshal(models.SendMessageRequest{Content: content})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/groups/%s/messages", c.baseURL, c.groupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var msg models.MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("failed to decode send response: %w", err)
	}
	return &msg, nil
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
