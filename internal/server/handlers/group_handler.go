package handlers

import (
	"errors"
	"net/http"

	"genielearn-backend/internal/models"
	"genielearn-backend/internal/server/middleware"
	"genielearn-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	groups   service.GroupService
	presence *service.PresenceService
}

func NewGroupHandler(groups service.GroupService, presence *service.PresenceService) *GroupHandler {
	return &GroupHandler{groups: groups, presence: presence}
}

func groupErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAlreadyMember), errors.Is(err, service.ErrOwnerLeaving):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CreateGroup godoc
// @Summary      Create a study group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.CreateGroupRequest true "Group details"
// @Success      201 {object} models.GroupResponse
// @Router       /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident := middleware.Identity(c)
	group, err := h.groups.CreateGroup(c.Request.Context(), ident.UserID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, group)
}

// ListGroups godoc
// @Summary      List the authenticated user's groups
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.GroupResponse
// @Router       /groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	ident := middleware.Identity(c)
	groups, err := h.groups.ListGroups(c.Request.Context(), ident.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list groups"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetGroup godoc
// @Summary      Get a group with its members
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group id"
// @Success      200 {object} models.GroupDetailResponse
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /groups/{groupId} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	ident := middleware.Identity(c)
	group, err := h.groups.GetGroup(c.Request.Context(), c.Param("groupId"), ident.UserID)
	if err != nil {
		c.JSON(groupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, group)
}

// JoinGroup godoc
// @Summary      Join a group
// @Tags         groups
// @Security     BearerAuth
// @Param        groupId path string true "Group id"
// @Success      204
// @Router       /groups/{groupId}/join [post]
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	ident := middleware.Identity(c)
	if err := h.groups.JoinGroup(c.Request.Context(), c.Param("groupId"), ident.UserID); err != nil {
		c.JSON(groupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// LeaveGroup godoc
// @Summary      Leave a group
// @Tags         groups
// @Security     BearerAuth
// @Param        groupId path string true "Group id"
// @Success      204
// @Router       /groups/{groupId}/leave [post]
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	ident := middleware.Identity(c)
	if err := h.groups.LeaveGroup(c.Request.Context(), c.Param("groupId"), ident.UserID); err != nil {
		c.JSON(groupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPresence godoc
// @Summary      List users currently connected to the group chat
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group id"
// @Success      200 {object} map[string][]string
// @Router       /groups/{groupId}/presence [get]
func (h *GroupHandler) GetPresence(c *gin.Context) {
	ident := middleware.Identity(c)
	groupID := c.Param("groupId")

	if err := h.groups.EnsureMember(c.Request.Context(), groupID, ident.UserID); err != nil {
		c.JSON(groupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	online, err := h.presence.OnlineUsers(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read presence"})
		return
	}

	members, err := h.groups.MemberIDs(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read presence"})
		return
	}

	onlineSet := make(map[string]struct{}, len(online))
	for _, id := range online {
		onlineSet[id] = struct{}{}
	}
	offline := make([]string, 0, len(members))
	for _, id := range members {
		if _, ok := onlineSet[id]; !ok {
			offline = append(offline, id)
		}
	}

	c.JSON(http.StatusOK, gin.H{"online": online, "offline": offline})
}
