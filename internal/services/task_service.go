package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktracker/internal/constants"
	"github.com/tasktrack/tasktracker/internal/filter"
	"github.com/tasktrack/tasktracker/internal/models"
	"github.com/tasktrack/tasktracker/internal/repository"
	"github.com/tasktrack/tasktracker/internal/timeline"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrOwnerChangeForbidden   = errors.New("only managers can change the task owner")
	ErrVersionMismatch        = errors.New("task was modified by someone else")
	ErrCommentEmpty           = errors.New("comment message is required")
	ErrCommentTooLong         = fmt.Errorf("comment message cannot exceed %d characters", constants.MaxCommentLength)
	ErrInvalidInterval        = errors.New("interval must be one of 1, 2, 3, 5, 7")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
)

// ValidationError carries every problem found in a create or update request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	drafter     TaskDrafter
	loc         *time.Location
	clock       func() time.Time
}

// NewTaskService creates a new TaskService. drafter may be nil when no AI
// backend is configured. loc defines calendar days for deadline windows.
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	drafter TaskDrafter,
	loc *time.Location,
) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		drafter:     drafter,
		loc:         loc,
		clock:       time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *TaskService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Now returns the current time in the service location.
func (s *TaskService) Now() time.Time {
	return s.clock().In(s.loc)
}

// Location returns the location used for calendar math.
func (s *TaskService) Location() *time.Location {
	return s.loc
}

// CreateTaskInput represents input for creating a task. Dates are raw
// request strings so that parse failures are reported with the other
// problems.
type CreateTaskInput struct {
	Title           string
	Description     string
	StartDate       string
	EndDate         string
	Priority        string
	Status          string
	OwnedByID       string
	CollaboratorIDs []string
	Tag             string
	ParentTaskID    string
	ProjectID       *uint64
}

// UpdateTaskInput represents a partial update. Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title           *string
	Description     *string
	StartDate       *string
	EndDate         *string
	Priority        *string
	Status          *string
	OwnedByID       *string
	CollaboratorIDs *[]string
	Tag             *string
	ParentTaskID    *string
	ProjectID       *uint64
	ClearProject    bool
	ExpectedVersion *int64
}

// ListTasks returns the viewer-visible tasks matching criteria, oldest first.
func (s *TaskService) ListTasks(viewer Viewer, criteria filter.Criteria) ([]models.Task, error) {
	tasks, err := s.taskRepo.List(repository.TaskFilter{OwnerIDs: viewer.AccessibleUserIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return filter.Apply(tasks, criteria, filter.IndexProjects(tasks), s.Now()), nil
}

// Stats summarizes the tasks ListTasks would return.
func (s *TaskService) Stats(viewer Viewer, criteria filter.Criteria) (filter.Summary, error) {
	tasks, err := s.ListTasks(viewer, criteria)
	if err != nil {
		return filter.Summary{}, err
	}
	return filter.Summarize(tasks, s.Now()), nil
}

// Timeline lays out the viewer-visible tasks for a month.
func (s *TaskService) Timeline(viewer Viewer, month time.Time, interval int) (timeline.Chart, error) {
	if !timeline.ValidInterval(interval) {
		return timeline.Chart{}, ErrInvalidInterval
	}
	tasks, err := s.taskRepo.List(repository.TaskFilter{OwnerIDs: viewer.AccessibleUserIDs})
	if err != nil {
		return timeline.Chart{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	return timeline.Build(tasks, month.In(s.loc), interval, s.Now()), nil
}

// GetTask returns a task visible to the viewer. Tasks outside the viewer's
// reach are reported as not found.
func (s *TaskService) GetTask(viewer Viewer, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !viewer.CanSee(task.OwnedByID) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// CreateTask validates input against the viewer's role and stores the task.
// Staff always own what they create and always start in "To Do".
func (s *TaskService) CreateTask(viewer Viewer, input CreateTaskInput) (*models.Task, error) {
	var problems []string

	title := strings.TrimSpace(input.Title)
	if title == "" {
		problems = append(problems, "Title is required.")
	}

	start, end, dateProblems := s.parseDates(&input.StartDate, &input.EndDate)
	problems = append(problems, dateProblems...)

	priority := models.Priority(strings.TrimSpace(input.Priority))
	if !priority.Valid() {
		problems = append(problems, "Priority must be Low, Medium, or High.")
	}

	status := models.TaskStatusTodo
	ownerID := viewer.ID()
	if viewer.IsManager() {
		if st := strings.TrimSpace(input.Status); st != "" {
			status = models.TaskStatus(st)
			if !status.Valid() {
				problems = append(problems, invalidStatusMessage())
			}
		}

		ownerID = strings.TrimSpace(input.OwnedByID)
		if ownerID == "" {
			problems = append(problems, "Owned By (assignee) is required for managers.")
		} else {
			p, err := s.checkUserExists(ownerID, "Owner")
			if err != nil {
				return nil, err
			}
			problems = append(problems, p...)
		}
	}

	collaborators := uniqueIDs(input.CollaboratorIDs)
	p, err := s.checkCollaborators(collaborators, nil)
	if err != nil {
		return nil, err
	}
	problems = append(problems, p...)

	var parentID *string
	if parent := strings.TrimSpace(input.ParentTaskID); parent != "" {
		p, err := s.checkParent(parent, "")
		if err != nil {
			return nil, err
		}
		problems = append(problems, p...)
		parentID = &parent
	}

	p, err = s.checkProject(input.ProjectID)
	if err != nil {
		return nil, err
	}
	problems = append(problems, p...)

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	now := s.Now()
	task := &models.Task{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		CreatedByID:   viewer.ID(),
		OwnedByID:     ownerID,
		StartDate:     start,
		EndDate:       end,
		ParentTaskID:  parentID,
		Tag:           strings.TrimSpace(input.Tag),
		Priority:      priority,
		Status:        status,
		ProjectID:     input.ProjectID,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
		Collaborators: collaboratorRows(collaborators),
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.reload(task.ID)
}

// UpdateTask applies a partial update. A non-manager sending a different
// owner is refused outright; a non-manager's status change is ignored; a
// non-manager's collaborator list is merged into the current one.
func (s *TaskService) UpdateTask(viewer Viewer, taskID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(viewer, taskID)
	if err != nil {
		return nil, err
	}

	if input.ExpectedVersion != nil && *input.ExpectedVersion != task.Version {
		return nil, ErrVersionMismatch
	}

	// An empty owner from a non-manager is treated as not sent.
	if input.OwnedByID != nil && !viewer.IsManager() {
		if owner := strings.TrimSpace(*input.OwnedByID); owner != "" && owner != task.OwnedByID {
			return nil, ErrOwnerChangeForbidden
		}
	}

	var problems []string

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			problems = append(problems, "Title cannot be empty.")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Tag != nil {
		task.Tag = strings.TrimSpace(*input.Tag)
	}

	if input.StartDate != nil || input.EndDate != nil {
		start, end, dateProblems := s.parseDates(input.StartDate, input.EndDate)
		if input.StartDate != nil {
			task.StartDate = start
		}
		if input.EndDate != nil {
			task.EndDate = end
		}
		if len(dateProblems) > 0 {
			problems = append(problems, dateProblems...)
		} else if task.StartDate != nil && task.EndDate != nil && task.EndDate.Before(*task.StartDate) {
			problems = append(problems, endBeforeStartMessage)
		}
	}

	if input.Priority != nil {
		task.Priority = models.Priority(strings.TrimSpace(*input.Priority))
		if !task.Priority.Valid() {
			problems = append(problems, "Priority must be Low, Medium, or High.")
		}
	}

	if input.Status != nil && viewer.IsManager() {
		task.Status = models.TaskStatus(strings.TrimSpace(*input.Status))
		if !task.Status.Valid() {
			problems = append(problems, invalidStatusMessage())
		}
	}

	if input.OwnedByID != nil && viewer.IsManager() {
		ownerID := strings.TrimSpace(*input.OwnedByID)
		if ownerID == "" {
			problems = append(problems, "Owned By (assignee) is required for managers.")
		} else if ownerID != task.OwnedByID {
			p, err := s.checkUserExists(ownerID, "Owner")
			if err != nil {
				return nil, err
			}
			problems = append(problems, p...)
			task.OwnedByID = ownerID
		}
	}

	if input.CollaboratorIDs != nil {
		current := task.CollaboratorIDs()
		requested := uniqueIDs(*input.CollaboratorIDs)
		next := requested
		if !viewer.IsManager() {
			next = uniqueIDs(append(append([]string{}, current...), requested...))
		}
		p, err := s.checkCollaborators(next, current)
		if err != nil {
			return nil, err
		}
		problems = append(problems, p...)
		task.Collaborators = collaboratorRows(next)
	}

	if input.ParentTaskID != nil {
		parent := strings.TrimSpace(*input.ParentTaskID)
		if parent == "" {
			task.ParentTaskID = nil
		} else {
			p, err := s.checkParent(parent, task.ID)
			if err != nil {
				return nil, err
			}
			problems = append(problems, p...)
			task.ParentTaskID = &parent
		}
	}

	if input.ClearProject {
		task.ProjectID = nil
	} else if input.ProjectID != nil {
		p, err := s.checkProject(input.ProjectID)
		if err != nil {
			return nil, err
		}
		problems = append(problems, p...)
		task.ProjectID = input.ProjectID
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	task.UpdatedAt = s.Now()
	if err := s.taskRepo.Update(task, task.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrVersionMismatch
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.reload(task.ID)
}

// AddComment appends a comment from the viewer to a visible task.
func (s *TaskService) AddComment(viewer Viewer, taskID, message string) (*models.Comment, error) {
	if _, err := s.GetTask(viewer, taskID); err != nil {
		return nil, err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrCommentEmpty
	}
	if len([]rune(message)) > constants.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		AuthorID:  viewer.ID(),
		Message:   message,
		CreatedAt: s.Now(),
	}
	if err := s.taskRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	comment.Author = viewer.User
	return comment, nil
}

// DraftTasks asks the configured drafter for task suggestions. Drafts are
// not stored.
func (s *TaskService) DraftTasks(ctx context.Context, text string) ([]DraftTask, error) {
	if s.drafter == nil {
		return nil, ErrAIServiceNotConfigured
	}

	drafts, err := s.drafter.DraftTasks(ctx, text, s.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	drafts = NormalizeDrafts(drafts)
	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	return drafts, nil
}

const endBeforeStartMessage = "End Date must be on/after Start Date."

// parseDates parses the provided dates. A nil pointer means "not sent" and
// yields a nil time without a problem.
func (s *TaskService) parseDates(startRaw, endRaw *string) (*time.Time, *time.Time, []string) {
	var problems []string

	parse := func(raw *string, label string) *time.Time {
		if raw == nil {
			return nil
		}
		if strings.TrimSpace(*raw) == "" {
			problems = append(problems, label+" is required.")
			return nil
		}
		t, err := ParseDate(*raw, s.loc)
		if err != nil {
			problems = append(problems, label+" must be a valid date (YYYY-MM-DD).")
			return nil
		}
		return &t
	}

	start := parse(startRaw, "Start Date")
	end := parse(endRaw, "End Date")
	if start != nil && end != nil && end.Before(*start) {
		problems = append(problems, endBeforeStartMessage)
	}
	return start, end, problems
}

func (s *TaskService) checkUserExists(id, label string) ([]string, error) {
	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return []string{fmt.Sprintf("%s %s does not exist.", label, id)}, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return nil, nil
}

// checkCollaborators enforces the cap and verifies ids not already on the
// task.
func (s *TaskService) checkCollaborators(ids, current []string) ([]string, error) {
	var problems []string
	if len(ids) > constants.MaxCollaborators {
		problems = append(problems, fmt.Sprintf("Collaborators cannot exceed %d.", constants.MaxCollaborators))
	}

	existing := make(map[string]struct{}, len(current))
	for _, id := range current {
		existing[id] = struct{}{}
	}
	var added []string
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			added = append(added, id)
		}
	}
	if len(added) == 0 {
		return problems, nil
	}

	users, err := s.userRepo.FindByIDs(added)
	if err != nil {
		return nil, fmt.Errorf("failed to verify collaborators: %w", err)
	}
	found := make(map[string]struct{}, len(users))
	for _, u := range users {
		found[u.ID] = struct{}{}
	}
	for _, id := range added {
		if _, ok := found[id]; !ok {
			problems = append(problems, fmt.Sprintf("Collaborator %s does not exist.", id))
		}
	}
	return problems, nil
}

func (s *TaskService) checkParent(parentID, selfID string) ([]string, error) {
	if parentID == selfID {
		return []string{"A task cannot be its own parent."}, nil
	}
	ok, err := s.taskRepo.Exists(parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify parent task: %w", err)
	}
	if !ok {
		return []string{fmt.Sprintf("Parent task %s does not exist.", parentID)}, nil
	}
	return nil, nil
}

func (s *TaskService) checkProject(id *uint64) ([]string, error) {
	if id == nil {
		return nil, nil
	}
	if _, err := s.projectRepo.FindByID(*id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return []string{fmt.Sprintf("Project %d does not exist.", *id)}, nil
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return nil, nil
}

func (s *TaskService) reload(id string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return task, nil
}

func invalidStatusMessage() string {
	names := make([]string, len(models.Statuses))
	for i, st := range models.Statuses {
		names[i] = string(st)
	}
	return "Status must be one of " + strings.Join(names, ", ") + "."
}

// uniqueIDs trims ids, drops blanks and keeps the first occurrence of each.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func collaboratorRows(ids []string) []models.TaskCollaborator {
	rows := make([]models.TaskCollaborator, len(ids))
	for i, id := range ids {
		rows[i] = models.TaskCollaborator{UserID: id, Position: i}
	}
	return rows
}
