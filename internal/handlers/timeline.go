package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/tasktrack/tasktracker/internal/errors"
	"github.com/tasktrack/tasktracker/internal/middleware"
	"github.com/tasktrack/tasktracker/internal/timeline"
)

// Timeline lays out the visible tasks for one month.
// Query: month=YYYY-MM (default current month), interval=1|2|3|5|7 (default 1).
func (h *TaskHandler) Timeline(c *gin.Context) {
	viewer, ok := middleware.GetViewer(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	loc := h.taskService.Location()
	month := h.taskService.Now()
	if raw := c.Query("month"); raw != "" {
		parsed, err := timeline.ParseMonth(raw, loc)
		if err != nil {
			apierrors.BadRequest(c, "month must be formatted as YYYY-MM")
			return
		}
		month = parsed
	}

	interval := 1
	if raw := c.Query("interval"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.BadRequest(c, "interval must be a number")
			return
		}
		interval = n
	}

	chart, err := h.taskService.Timeline(viewer, month, interval)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}
