package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack/tasktracker/internal/constants"
	apierrors "github.com/tasktrack/tasktracker/internal/errors"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/models"
	"github.com/tasktrack/tasktracker/internal/services"
)

// RequireTaskAccess loads the task named by the :id parameter.
// Tasks the viewer cannot see are reported as not found so that their
// existence is not leaked.
func RequireTaskAccess(taskService *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := GetViewer(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := taskService.GetTask(viewer, c.Param("id"))
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) {
				apierrors.NotFound(c, "Task not found")
			} else {
				logging.Logger.WithError(err).Error("failed to load task")
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task set by RequireTaskAccess
func GetTask(c *gin.Context) (*models.Task, bool) {
	t, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := t.(*models.Task)
	return task, ok
}
