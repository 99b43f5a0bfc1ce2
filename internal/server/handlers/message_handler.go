package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"genielearn-backend/internal/models"
	"genielearn-backend/internal/server/middleware"
	"genielearn-backend/internal/service"
	"genielearn-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messages service.MessageService
	groups   service.GroupService
	gateway  *ws.Gateway
}

func NewMessageHandler(messages service.MessageService, groups service.GroupService, gateway *ws.Gateway) *MessageHandler {
	return &MessageHandler{messages: messages, groups: groups, gateway: gateway}
}

// GetMessages godoc
// @Summary      Get a group's message history
// @Description  Ascending time order; paginate with limit/offset until a short page.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group id"
// @Param        limit query int false "Page size" default(100)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {array} models.MessageResponse
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /groups/{groupId}/messages [get]
func (h *MessageHandler) GetMessages(c *gin.Context) {
	ident := middleware.Identity(c)
	groupID := c.Param("groupId")

	if err := h.groups.EnsureMember(c.Request.Context(), groupID, ident.UserID); err != nil {
		c.JSON(groupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	msgs, err := h.messages.History(c.Request.Context(), groupID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendMessage godoc
// @Summary      Send a chat message (HTTP fallback)
// @Description  Persists the message and fans it out to the group's live connections.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group id"
// @Param        request body models.SendMessageRequest true "Message content"
// @Success      201 {object} models.MessageResponse
// @Failure      400 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /groups/{groupId}/messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident := middleware.Identity(c)
	groupID := c.Param("groupId")

	if err := h.groups.EnsureMember(c.Request.Context(), groupID, ident.UserID); err != nil {
		c.JSON(groupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Append(c.Request.Context(), groupID, ident.UserID, ident.Name, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrEmptyContent) || errors.Is(err, service.ErrContentTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	h.gateway.BroadcastMessage(msg)
	c.JSON(http.StatusCreated, msg)
}
