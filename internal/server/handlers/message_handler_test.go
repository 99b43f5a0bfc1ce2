package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"genielearn-backend/internal/models"
	"genielearn-backend/internal/server/middleware"
	"genielearn-backend/internal/service"
	"genielearn-backend/internal/session"
	"genielearn-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGroupService struct {
	memberships map[string]bool // "groupID/userID"
}

func (f *fakeGroupService) EnsureMember(_ context.Context, groupID, userID string) error {
	if !f.memberships[groupID+"/"+userID] {
		return service.ErrNotMember
	}
	return nil
}

func (f *fakeGroupService) CreateGroup(context.Context, string, *models.CreateGroupRequest) (*models.GroupResponse, error) {
	return nil, nil
}
func (f *fakeGroupService) GetGroup(context.Context, string, string) (*models.GroupDetailResponse, error) {
	return nil, nil
}
func (f *fakeGroupService) ListGroups(context.Context, string) ([]models.GroupResponse, error) {
	return nil, nil
}
func (f *fakeGroupService) JoinGroup(context.Context, string, string) error  { return nil }
func (f *fakeGroupService) LeaveGroup(context.Context, string, string) error { return nil }
func (f *fakeGroupService) MemberIDs(context.Context, string) ([]string, error) {
	return nil, nil
}

type fakeMessageService struct {
	history []models.MessageResponse
}

func (f *fakeMessageService) Append(_ context.Context, groupID, senderID, senderName, content string) (*models.MessageResponse, error) {
	trimmed, err := service.ValidateContent(content)
	if err != nil {
		return nil, err
	}
	return &models.MessageResponse{
		ID: "m-new", GroupID: groupID, SenderID: senderID, SenderName: senderName,
		Content: trimmed, Timestamp: time.Now().UTC(),
	}, nil
}

func (f *fakeMessageService) History(_ context.Context, groupID string, limit, offset int) ([]models.MessageResponse, error) {
	if offset >= len(f.history) {
		return []models.MessageResponse{}, nil
	}
	end := offset + limit
	if end > len(f.history) {
		end = len(f.history)
	}
	return f.history[offset:end], nil
}

func setupMessageRouter(t *testing.T, msgs *fakeMessageService) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager("test-secret", time.Hour)
	token, err := sessions.Issue(&models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	groups := &fakeGroupService{memberships: map[string]bool{"g1/u1": true}}
	gateway := ws.NewGateway(ws.NewRegistry(), sessions, groups, msgs, nil)
	handler := NewMessageHandler(msgs, groups, gateway)

	router := gin.New()
	protected := router.Group("/api/v1")
	protected.Use(middleware.RequireAuth(sessions))
	protected.GET("/groups/:groupId/messages", handler.GetMessages)
	protected.POST("/groups/:groupId/messages", handler.SendMessage)
	return router, token
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetMessagesRequiresAuth(t *testing.T) {
	router, _ := setupMessageRouter(t, &fakeMessageService{})

	w := doRequest(router, http.MethodGet, "/api/v1/groups/g1/messages", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/groups/g1/messages", "not-a-valid-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetMessagesRequiresMembership(t *testing.T) {
	router, token := setupMessageRouter(t, &fakeMessageService{})

	w := doRequest(router, http.MethodGet, "/api/v1/groups/g2/messages", token, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetMessagesReturnsPage(t *testing.T) {
	msgs := &fakeMessageService{}
	for i := 0; i < 3; i++ {
		msgs.history = append(msgs.history, models.MessageResponse{
			ID: "m" + string(rune('1'+i)), GroupID: "g1", SenderID: "u1",
			SenderName: "Alice", Content: "hello", Timestamp: time.Now().UTC(),
		})
	}
	router, token := setupMessageRouter(t, msgs)

	w := doRequest(router, http.MethodGet, "/api/v1/groups/g1/messages?limit=2&offset=0", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	var page []models.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page, 2)
}

func TestSendMessage(t *testing.T) {
	router, token := setupMessageRouter(t, &fakeMessageService{})

	w := doRequest(router, http.MethodPost, "/api/v1/groups/g1/messages", token, `{"content":"  hi there  "}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var msg models.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, "hi there", msg.Content)
	assert.Equal(t, "u1", msg.SenderID)
	assert.Equal(t, "Alice", msg.SenderName)
}

func TestSendMessageRejectsInvalidContent(t *testing.T) {
	router, token := setupMessageRouter(t, &fakeMessageService{})

	w := doRequest(router, http.MethodPost, "/api/v1/groups/g1/messages", token, `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	long, _ := json.Marshal(models.SendMessageRequest{Content: strings.Repeat("x", models.MaxMessageLength+1)})
	w = doRequest(router, http.MethodPost, "/api/v1/groups/g1/messages", token, string(long))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	router, token := setupMessageRouter(t, &fakeMessageService{})

	w := doRequest(router, http.MethodPost, "/api/v1/groups/g2/messages", token, `{"content":"hi"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
