package handlers

import (
	"errors"
	"net/http"

	"genielearn-backend/internal/server/middleware"
	"genielearn-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	files  service.FileService
	groups service.GroupService
}

func NewFileHandler(files service.FileService, groups service.GroupService) *FileHandler {
	return &FileHandler{files: files, groups: groups}
}

// UploadFile godoc
// @Summary      Share a file with a group
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group id"
// @Param        file formData file true "File to share"
// @Success      201 {object} models.FileResponse
// @Failure      400 {object} map[string]string
// @Router       /groups/{groupId}/files [post]
func (h *FileHandler) UploadFile(c *gin.Context) {
	ident := middleware.Identity(c)
	groupID := c.Param("groupId")

	if err := h.groups.EnsureMember(c.Request.Context(), groupID, ident.UserID); err != nil {
		c.JSON(groupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := h.files.Upload(c.Request.Context(), groupID, ident.UserID, header)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		return
	}
	c.JSON(http.StatusCreated, file)
}

// ListFiles godoc
// @Summary      List a group's shared files
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group id"
// @Success      200 {array} models.FileResponse
// @Router       /groups/{groupId}/files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	ident := middleware.Identity(c)
	groupID := c.Param("groupId")

	if err := h.groups.EnsureMember(c.Request.Context(), groupID, ident.UserID); err != nil {
		c.JSON(groupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	files, err := h.files.ListGroupFiles(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}
	c.JSON(http.StatusOK, files)
}

// DownloadFile godoc
// @Summary      Download a shared file
// @Tags         files
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        fileId path string true "File id"
// @Success      200
// @Failure      404 {object} map[string]string
// @Router       /files/{fileId}/download [get]
func (h *FileHandler) DownloadFile(c *gin.Context) {
	ident := middleware.Identity(c)

	record, reader, err := h.files.Download(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to download file"})
		return
	}
	defer reader.Close()

	if err := h.groups.EnsureMember(c.Request.Context(), record.GroupID, ident.UserID); err != nil {
		c.JSON(groupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+record.Name+"\"")
	c.DataFromReader(http.StatusOK, record.Size, record.ContentType, reader, nil)
}
