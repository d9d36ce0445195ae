package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack/tasktracker/internal/constants"
	apierrors "github.com/tasktrack/tasktracker/internal/errors"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/services"
)

// LoadViewer loads the authenticated user and resolves which users' tasks
// they may see. It must run after RequireAuth.
func LoadViewer(authService *services.AuthService, resolver *services.AccessResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := authService.GetUser(userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				apierrors.Unauthorized(c, "Unknown user")
			} else {
				logging.Logger.WithError(err).WithField("user_id", userID).Error("failed to load viewer")
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyViewer, services.NewViewer(*user, resolver))
		c.Next()
	}
}

// GetViewer retrieves the viewer set by LoadViewer
func GetViewer(c *gin.Context) (services.Viewer, bool) {
	v, exists := c.Get(constants.ContextKeyViewer)
	if !exists {
		return services.Viewer{}, false
	}
	viewer, ok := v.(services.Viewer)
	return viewer, ok
}
