package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tasktrack/tasktracker/internal/constants"
	"github.com/tasktrack/tasktracker/internal/dto"
	apierrors "github.com/tasktrack/tasktracker/internal/errors"
	"github.com/tasktrack/tasktracker/internal/filter"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/middleware"
	"github.com/tasktrack/tasktracker/internal/models"
	"github.com/tasktrack/tasktracker/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// criteriaFromQuery reads the table filters from the query string
func criteriaFromQuery(c *gin.Context) filter.Criteria {
	return filter.Criteria{
		Search:         c.Query("search"),
		Status:         c.Query("status"),
		Priority:       c.Query("priority"),
		Project:        c.Query("project"),
		Assignee:       c.Query("assignee"),
		Tag:            c.Query("tag"),
		Deadline:       c.Query("deadline"),
		ExcludeUndated: c.Query("undated") == "exclude",
	}
}

// ListTasks returns the tasks visible to the viewer that match the filters
func (h *TaskHandler) ListTasks(c *gin.Context) {
	viewer, ok := middleware.GetViewer(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.ListTasks(viewer, criteriaFromQuery(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{Tasks: dto.ToTaskDTOs(tasks)})
}

// Stats returns dashboard counters for the filtered task list
func (h *TaskHandler) Stats(c *gin.Context) {
	viewer, ok := middleware.GetViewer(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	summary, err := h.taskService.Stats(viewer, criteriaFromQuery(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	respondTask(c, http.StatusOK, task)
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	viewer, ok := middleware.GetViewer(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title            string   `json:"title"`
		Description      string   `json:"description"`
		StartDate        string   `json:"startDate"`
		EndDate          string   `json:"endDate"`
		Priority         string   `json:"priority"`
		Status           string   `json:"status"`
		OwnedByID        string   `json:"ownedById"`
		CollaboratorsIDs []string `json:"collaboratorsIds"`
		Tag              string   `json:"tag"`
		ParentTaskID     string   `json:"parentTaskId"`
		ProjectID        *uint64  `json:"projectId"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(viewer, services.CreateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Priority:        req.Priority,
		Status:          req.Status,
		OwnedByID:       req.OwnedByID,
		CollaboratorIDs: req.CollaboratorsIDs,
		Tag:             req.Tag,
		ParentTaskID:    req.ParentTaskID,
		ProjectID:       req.ProjectID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	respondTask(c, http.StatusCreated, task)
}

// UpdateTask applies a partial update. Only the fields present in the body
// are changed; If-Match, when sent, must carry the current version.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	viewer, ok := middleware.GetViewer(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, problems := updateInputFromBody(rawReq)
	if len(problems) > 0 {
		apierrors.ValidationFailed(c, problems)
		return
	}

	if ifMatch := c.GetHeader(constants.HeaderIfMatch); ifMatch != "" {
		version, err := parseETag(ifMatch)
		if err != nil {
			apierrors.BadRequest(c, "Invalid If-Match header")
			return
		}
		input.ExpectedVersion = &version
	}

	task, err := h.taskService.UpdateTask(viewer, c.Param("id"), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	respondTask(c, http.StatusOK, task)
}

// AddComment appends a comment to a task
func (h *TaskHandler) AddComment(c *gin.Context) {
	viewer, ok := middleware.GetViewer(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type AddCommentRequest struct {
		Message string `json:"message"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.taskService.AddComment(viewer, task.ID, req.Message)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"comment": dto.ToCommentDTO(*comment),
	})
}

// DraftTasks suggests tasks from free text using AI. Nothing is stored.
func (h *TaskHandler) DraftTasks(c *gin.Context) {
	type DraftTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req DraftTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.taskService.DraftTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
	})
}

func respondTask(c *gin.Context, status int, task *models.Task) {
	c.Header(constants.HeaderETag, formatETag(task.Version))
	c.JSON(status, dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

func formatETag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// parseETag accepts "3", 3 and W/"3".
func parseETag(value string) (int64, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "W/")
	value = strings.Trim(value, `"`)
	return strconv.ParseInt(value, 10, 64)
}

// updateInputFromBody maps the fields present in a raw update body.
// Fields holding the wrong JSON type are reported as problems.
func updateInputFromBody(raw map[string]any) (services.UpdateTaskInput, []string) {
	var input services.UpdateTaskInput
	var problems []string

	str := func(key, label string, nullAsEmpty bool) *string {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		if v == nil && nullAsEmpty {
			empty := ""
			return &empty
		}
		s, ok := v.(string)
		if !ok {
			problems = append(problems, label+" must be a string.")
			return nil
		}
		return &s
	}

	input.Title = str("title", "Title", false)
	input.Description = str("description", "Description", true)
	input.StartDate = str("startDate", "Start Date", true)
	input.EndDate = str("endDate", "End Date", true)
	input.Priority = str("priority", "Priority", false)
	input.Status = str("status", "Status", false)
	input.OwnedByID = str("ownedById", "Owned By", true)
	input.Tag = str("tag", "Tag", true)
	input.ParentTaskID = str("parentTaskId", "Parent task", true)

	if v, ok := raw["collaboratorsIds"]; ok {
		ids := []string{}
		switch list := v.(type) {
		case nil:
		case []any:
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					problems = append(problems, "Collaborators must be a list of user ids.")
					break
				}
				ids = append(ids, s)
			}
		default:
			problems = append(problems, "Collaborators must be a list of user ids.")
		}
		input.CollaboratorIDs = &ids
	}

	if v, ok := raw["projectId"]; ok {
		switch n := v.(type) {
		case nil:
			input.ClearProject = true
		case float64:
			if n < 1 || n != math.Trunc(n) {
				problems = append(problems, fmt.Sprintf("Project %v does not exist.", n))
				break
			}
			id := uint64(n)
			input.ProjectID = &id
		default:
			problems = append(problems, "Project must be a numeric id.")
		}
	}

	return input, problems
}

func respondTaskError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.ValidationFailed(c, verr.Problems)
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrOwnerChangeForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrVersionMismatch):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrCommentEmpty),
		errors.Is(err, services.ErrCommentTooLong):
		apierrors.ValidationFailed(c, []string{err.Error()})
	case errors.Is(err, services.ErrInvalidInterval),
		errors.Is(err, services.ErrAINoTasksGenerated):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	default:
		logging.Logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		apierrors.InternalError(c, "Something went wrong. Please try again.")
	}
}
