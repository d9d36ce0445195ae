package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack/tasktracker/internal/dto"
	apierrors "github.com/tasktrack/tasktracker/internal/errors"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/middleware"
	"github.com/tasktrack/tasktracker/internal/services"
)

// DirectoryHandler serves the user and project lookups used by task forms.
type DirectoryHandler struct {
	directoryService *services.DirectoryService
}

func NewDirectoryHandler(directoryService *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{
		directoryService: directoryService,
	}
}

// ListUsers returns every user, for owner and collaborator pickers
func (h *DirectoryHandler) ListUsers(c *gin.Context) {
	users, err := h.directoryService.ListUsers()
	if err != nil {
		logging.Logger.WithError(err).Error("failed to list users")
		apierrors.InternalError(c, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToUserDTOs(users),
	})
}

// AccessibleUsers returns the users whose tasks the viewer can see
func (h *DirectoryHandler) AccessibleUsers(c *gin.Context) {
	viewer, ok := middleware.GetViewer(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	users, err := h.directoryService.AccessibleUsers(viewer)
	if err != nil {
		logging.Logger.WithError(err).Error("failed to list accessible users")
		apierrors.InternalError(c, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToUserDTOs(users),
	})
}

// ListProjects returns every project
func (h *DirectoryHandler) ListProjects(c *gin.Context) {
	projects, err := h.directoryService.ListProjects()
	if err != nil {
		logging.Logger.WithError(err).Error("failed to list projects")
		apierrors.InternalError(c, "Failed to list projects")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": dto.ToProjectDTOs(projects),
	})
}
