package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"genielearn-backend/internal/models"
	"genielearn-backend/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// historyServer serves a fixed ascending message history with limit/offset
// paging, the same shape the backend's messages endpoint uses.
func historyServer(t *testing.T, total int) *httptest.Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		batch := []models.MessageResponse{}
		for i := offset; i < offset+limit && i < total; i++ {
			batch = append(batch, models.MessageResponse{
				ID:         fmt.Sprintf("m%d", i),
				GroupID:    "g1",
				SenderID:   "u1",
				SenderName: "Alice",
				Content:    fmt.Sprintf("message %d", i),
				Timestamp:  baseTime.Add(time.Duration(i) * time.Second),
			})
		}
		json.NewEncoder(w).Encode(batch)
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadHistoryStopsOnShortPage(t *testing.T) {
	srv := historyServer(t, 250)
	c := New(srv.URL, "test-token", "g1", "u1", "Alice")

	require.NoError(t, c.LoadHistory(context.Background()))
	assert.Equal(t, 250, c.Timeline().Len())
}

func TestLoadHistoryHonorsHardCap(t *testing.T) {
	srv := historyServer(t, 6000)
	c := New(srv.URL, "test-token", "g1", "u1", "Alice")

	require.NoError(t, c.LoadHistory(context.Background()))
	assert.Equal(t, historyHardCap, c.Timeline().Len())
}

func TestLoadHistoryIsIdempotent(t *testing.T) {
	srv := historyServer(t, 42)
	c := New(srv.URL, "test-token", "g1", "u1", "Alice")

	require.NoError(t, c.LoadHistory(context.Background()))
	require.NoError(t, c.LoadHistory(context.Background()))
	assert.Equal(t, 42, c.Timeline().Len())
}

func TestLoadHistorySurfacesAPIError(t *testing.T) {
	srv := historyServer(t, 10)
	c := New(srv.URL, "wrong-token", "g1", "u1", "Alice")

	err := c.LoadHistory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthenticated")
}

func TestStartWithoutSession(t *testing.T) {
	c := New("http://localhost:0", "", "g1", "u1", "Alice")
	assert.ErrorIs(t, c.Start(context.Background()), ErrNoSession)
}

func TestSendAppliesResponseWhenNotLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.SendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.MessageResponse{
			ID:         "m-server",
			GroupID:    "g1",
			SenderID:   "u1",
			SenderName: "Alice",
			Content:    req.Content,
			Timestamp:  time.Now().UTC(),
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token", "g1", "u1", "Alice")
	require.NoError(t, c.Send(context.Background(), "hello"))

	// The HTTP response confirmed the optimistic entry; exactly one row, no
	// longer optimistic.
	entries := c.Timeline().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "m-server", entries[0].ID)
	assert.False(t, entries[0].IsOptimistic)
}

func TestSendPaddedContentConfirmsOptimisticEntry(t *testing.T) {
	// The backend trims before persisting; the confirmation must still match
	// the optimistic entry when the user typed surrounding whitespace.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.SendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.MessageResponse{
			ID:         "m-trimmed",
			GroupID:    "g1",
			SenderID:   "u1",
			SenderName: "Alice",
			Content:    strings.TrimSpace(req.Content),
			Timestamp:  time.Now().UTC(),
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token", "g1", "u1", "Alice")
	require.NoError(t, c.Send(context.Background(), "  hello  "))

	entries := c.Timeline().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "m-trimmed", entries[0].ID)
	assert.Equal(t, "hello", entries[0].Content)
	assert.False(t, entries[0].IsOptimistic)
}

func TestSendRollsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "user is not a group member"})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token", "g1", "u1", "Alice")
	err := c.Send(context.Background(), "rejected")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a group member")

	// The optimistic entry is gone; nothing phantom remains in the list.
	assert.Equal(t, 0, c.Timeline().Len())
}

// gatewayStub upgrades the client's live-channel dial and pushes the frames it
// was given, then keeps the connection open until the test finishes.
func gatewayStub(t *testing.T, frames ...interface{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		for _, frame := range frames {
			require.NoError(t, conn.WriteJSON(frame))
		}
		// Hold open; the test closes the client side.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConnectAppliesPushedMessages(t *testing.T) {
	pushed := ws.MessageEvent{
		Type:       ws.EventTypeMessage,
		ID:         "m-push",
		Content:    "from the wire",
		SenderID:   "u2",
		SenderName: "Bob",
		Timestamp:  time.Now().UTC(),
	}
	srv := gatewayStub(t, pushed)

	c := New(srv.URL, "test-token", "g1", "u1", "Alice")
	defer c.Close()

	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.Live())

	require.Eventually(t, func() bool { return c.Timeline().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	entries := c.Timeline().Entries()
	assert.Equal(t, "m-push", entries[0].ID)
	assert.Equal(t, "g1", entries[0].GroupID)
	assert.Equal(t, "from the wire", entries[0].Content)
}

func TestConnectDeliversSystemAndErrorEvents(t *testing.T) {
	srv := gatewayStub(t,
		ws.SystemEvent{Type: ws.EventTypeSystem, Kind: ws.SystemKindJoin, Content: "Bob joined the chat", Timestamp: time.Now().UTC()},
		ws.ErrorEvent{Type: ws.EventTypeError, Code: "validation_failed", Message: "message content is empty"},
	)

	c := New(srv.URL, "test-token", "g1", "u1", "Alice")
	defer c.Close()

	systems := make(chan ws.SystemEvent, 1)
	errs := make(chan ws.ErrorEvent, 1)
	c.OnSystem = func(ev ws.SystemEvent) { systems <- ev }
	c.OnError = func(ev ws.ErrorEvent) { errs <- ev }

	require.NoError(t, c.Connect(context.Background()))

	select {
	case ev := <-systems:
		assert.Equal(t, ws.SystemKindJoin, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no system event delivered")
	}

	select {
	case ev := <-errs:
		assert.Equal(t, "validation_failed", ev.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("no error event delivered")
	}

	// Non-message events never land in the timeline.
	assert.Equal(t, 0, c.Timeline().Len())
}

func TestReconnectDoesNotDuplicate(t *testing.T) {
	// The stub replays the same push on every connection, standing in for a
	// message that straddles the disconnect gap.
	pushed := ws.MessageEvent{
		Type:       ws.EventTypeMessage,
		ID:         "m-replayed",
		Content:    "seen twice on the wire",
		SenderID:   "u2",
		SenderName: "Bob",
		Timestamp:  time.Now().UTC(),
	}
	srv := gatewayStub(t, pushed)

	c := New(srv.URL, "test-token", "g1", "u1", "Alice")
	defer c.Close()

	require.NoError(t, c.Connect(context.Background()))
	require.Eventually(t, func() bool { return c.Timeline().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Reconnect(context.Background()))
	assert.True(t, c.Live())

	// The second delivery of the same id reconciles to nothing.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, c.Timeline().Len())
}

func TestGatewayURL(t *testing.T) {
	c := New("https://chat.example.com/", "tok", "g1", "u1", "Alice")
	u, err := c.gatewayURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://chat.example.com/api/v1/groups/g1/ws?token=tok", u)

	c = New("http://localhost:8080", "tok", "g1", "u1", "Alice")
	u, err = c.gatewayURL()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/api/v1/groups/g1/ws?token=tok", u)
}
