package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tasktrack/tasktracker/internal/database"
	"github.com/tasktrack/tasktracker/internal/filter"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/models"
	"github.com/tasktrack/tasktracker/internal/repository"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, time.September, 17, 9, 0, 0, 0, time.UTC)

type TaskServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	repos    repository.Set
	resolver *AccessResolver
	service  *TaskService
}

func (suite *TaskServiceTestSuite) SetupTest() {
	logging.Discard()

	db, err := database.OpenInMemory()
	suite.Require().NoError(err)
	suite.db = db

	suite.repos = repository.NewGormSet(db)
	suite.resolver = NewAccessResolver(suite.repos.Users)
	suite.service = NewTaskService(suite.repos.Tasks, suite.repos.Users, suite.repos.Projects, nil, time.UTC)
	suite.service.SetClock(func() time.Time { return fixedNow })

	mgr := "u-mgr"
	other := "u-other"
	for _, u := range []models.User{
		{ID: "u-mgr", Name: "Morgan Manager", Role: models.RoleManager},
		{ID: "u-stf-1", Name: "Sam Staff", Role: models.RoleStaff, ManagerID: &mgr},
		{ID: "u-stf-2", Name: "Casey Staff", Role: models.RoleStaff, ManagerID: &mgr},
		{ID: "u-other", Name: "Olive Other", Role: models.RoleManager},
		{ID: "u-stf-9", Name: "Nina Staff", Role: models.RoleStaff, ManagerID: &other},
		{ID: "a", Name: "A", Role: models.RoleStaff},
		{ID: "b", Name: "B", Role: models.RoleStaff},
		{ID: "c", Name: "C", Role: models.RoleStaff},
		{ID: "d", Name: "D", Role: models.RoleStaff},
		{ID: "e", Name: "E", Role: models.RoleStaff},
		{ID: "f", Name: "F", Role: models.RoleStaff},
	} {
		user := u
		suite.Require().NoError(suite.repos.Users.Save(&user))
	}
}

func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskServiceTestSuite) viewer(id string) Viewer {
	user, err := suite.repos.Users.FindByID(id)
	suite.Require().NoError(err)
	return NewViewer(*user, suite.resolver)
}

func (suite *TaskServiceTestSuite) createAsManager(owner string, collaborators ...string) *models.Task {
	task, err := suite.service.CreateTask(suite.viewer("u-mgr"), CreateTaskInput{
		Title:           "Quarterly report",
		StartDate:       "2025-09-15",
		EndDate:         "2025-09-19",
		Priority:        "High",
		Status:          "In Progress",
		OwnedByID:       owner,
		CollaboratorIDs: collaborators,
	})
	suite.Require().NoError(err)
	return task
}

func (suite *TaskServiceTestSuite) problems(err error) []string {
	var verr *ValidationError
	suite.Require().True(errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Problems
}

func (suite *TaskServiceTestSuite) TestCreateTask_StaffOwnsTaskAndStartsInTodo() {
	task, err := suite.service.CreateTask(suite.viewer("u-stf-1"), CreateTaskInput{
		Title:     "Bug bash",
		Priority:  "Medium",
		StartDate: "2025-09-20",
		EndDate:   "2025-09-21",
		Status:    "Completed",
		OwnedByID: "u-mgr",
	})

	suite.Require().NoError(err)
	suite.Equal("u-stf-1", task.OwnedByID)
	suite.Equal("Sam Staff", task.OwnedBy.Name)
	suite.Equal("u-stf-1", task.CreatedByID)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(int64(1), task.Version)
	suite.Equal("2025-09-20", task.StartDate.In(time.UTC).Format("2006-01-02"))
}

func (suite *TaskServiceTestSuite) TestCreateTask_ManagerSetsOwnerStatusAndCollaborators() {
	task := suite.createAsManager("u-stf-2", "a", "b", "a", " c ")

	suite.Equal("u-stf-2", task.OwnedByID)
	suite.Equal(models.TaskStatusInProgress, task.Status)
	suite.Equal(models.PriorityHigh, task.Priority)
	suite.Equal([]string{"a", "b", "c"}, task.CollaboratorIDs())
}

func (suite *TaskServiceTestSuite) TestCreateTask_CollectsAllProblems() {
	_, err := suite.service.CreateTask(suite.viewer("u-mgr"), CreateTaskInput{
		Title:           "   ",
		StartDate:       "2025-09-21",
		EndDate:         "2025-09-20",
		Priority:        "Urgent",
		CollaboratorIDs: []string{"a", "b", "c", "d", "e", "f"},
		ParentTaskID:    "missing",
	})

	suite.Equal([]string{
		"Title is required.",
		"End Date must be on/after Start Date.",
		"Priority must be Low, Medium, or High.",
		"Owned By (assignee) is required for managers.",
		"Collaborators cannot exceed 5.",
		"Parent task missing does not exist.",
	}, suite.problems(err))
}

func (suite *TaskServiceTestSuite) TestCreateTask_UnknownReferences() {
	_, err := suite.service.CreateTask(suite.viewer("u-mgr"), CreateTaskInput{
		Title:           "Ghosts",
		Priority:        "Low",
		StartDate:       "2025-09-21",
		EndDate:         "not a date",
		OwnedByID:       "u-nobody",
		CollaboratorIDs: []string{"a", "zz"},
	})

	suite.Equal([]string{
		"End Date must be a valid date (YYYY-MM-DD).",
		"Owner u-nobody does not exist.",
		"Collaborator zz does not exist.",
	}, suite.problems(err))
}

func (suite *TaskServiceTestSuite) TestUpdateTask_ManagerCollaboratorCap() {
	task := suite.createAsManager("u-stf-1")
	ids := []string{"a", "b", "c", "d", "e", "f"}

	_, err := suite.service.UpdateTask(suite.viewer("u-mgr"), task.ID, UpdateTaskInput{CollaboratorIDs: &ids})

	suite.Contains(suite.problems(err), "Collaborators cannot exceed 5.")
}

func (suite *TaskServiceTestSuite) TestUpdateTask_ManagerReplacesCollaborators() {
	task := suite.createAsManager("u-stf-1", "a", "b")
	ids := []string{"c"}

	updated, err := suite.service.UpdateTask(suite.viewer("u-mgr"), task.ID, UpdateTaskInput{CollaboratorIDs: &ids})

	suite.Require().NoError(err)
	suite.Equal([]string{"c"}, updated.CollaboratorIDs())
	suite.Equal(int64(2), updated.Version)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_StaffMergesCollaborators() {
	task := suite.createAsManager("u-stf-1", "a", "b")
	ids := []string{"c"}

	updated, err := suite.service.UpdateTask(suite.viewer("u-stf-1"), task.ID, UpdateTaskInput{CollaboratorIDs: &ids})

	suite.Require().NoError(err)
	suite.Equal([]string{"a", "b", "c"}, updated.CollaboratorIDs())
}

func (suite *TaskServiceTestSuite) TestUpdateTask_StaffMergeRespectsCap() {
	task := suite.createAsManager("u-stf-1", "a", "b", "c", "d")
	ids := []string{"e", "f"}

	_, err := suite.service.UpdateTask(suite.viewer("u-stf-1"), task.ID, UpdateTaskInput{CollaboratorIDs: &ids})

	suite.Contains(suite.problems(err), "Collaborators cannot exceed 5.")
}

func (suite *TaskServiceTestSuite) TestUpdateTask_StaffCannotChangeOwner() {
	task := suite.createAsManager("u-stf-1")
	owner := "u-stf-2"
	title := "Renamed"

	_, err := suite.service.UpdateTask(suite.viewer("u-stf-1"), task.ID, UpdateTaskInput{OwnedByID: &owner, Title: &title})

	suite.ErrorIs(err, ErrOwnerChangeForbidden)
	stored, err := suite.repos.Tasks.FindByID(task.ID)
	suite.Require().NoError(err)
	suite.Equal("u-stf-1", stored.OwnedByID)
	suite.Equal("Quarterly report", stored.Title)
	suite.Equal(int64(1), stored.Version)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_StaffResendingOwnOwnerIsAllowed() {
	task := suite.createAsManager("u-stf-1")
	owner := "u-stf-1"

	_, err := suite.service.UpdateTask(suite.viewer("u-stf-1"), task.ID, UpdateTaskInput{OwnedByID: &owner})

	suite.NoError(err)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_StaffEmptyOwnerIsIgnored() {
	task := suite.createAsManager("u-stf-1")
	owner := ""
	title := "Renamed"

	updated, err := suite.service.UpdateTask(suite.viewer("u-stf-1"), task.ID, UpdateTaskInput{OwnedByID: &owner, Title: &title})

	suite.Require().NoError(err)
	suite.Equal("u-stf-1", updated.OwnedByID)
	suite.Equal("Renamed", updated.Title)
}

func (suite *TaskServiceTestSuite) TestCreateTask_PriorityRequired() {
	_, err := suite.service.CreateTask(suite.viewer("u-stf-1"), CreateTaskInput{
		Title:     "No priority",
		StartDate: "2025-09-17",
		EndDate:   "2025-09-18",
	})

	suite.Equal([]string{"Priority must be Low, Medium, or High."}, suite.problems(err))
}

func (suite *TaskServiceTestSuite) TestUpdateTask_StaffStatusChangeIgnored() {
	task := suite.createAsManager("u-stf-1")
	status := "Completed"
	tag := "ops"

	updated, err := suite.service.UpdateTask(suite.viewer("u-stf-1"), task.ID, UpdateTaskInput{Status: &status, Tag: &tag})

	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Equal("ops", updated.Tag)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_ManagerReassigns() {
	task := suite.createAsManager("u-stf-1")
	owner := "u-stf-2"
	status := "Blocked"

	updated, err := suite.service.UpdateTask(suite.viewer("u-mgr"), task.ID, UpdateTaskInput{OwnedByID: &owner, Status: &status})

	suite.Require().NoError(err)
	suite.Equal("u-stf-2", updated.OwnedByID)
	suite.Equal(models.TaskStatusBlocked, updated.Status)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_Validation() {
	task := suite.createAsManager("u-stf-1")
	empty := " "
	end := "2025-09-01"
	self := task.ID

	_, err := suite.service.UpdateTask(suite.viewer("u-mgr"), task.ID, UpdateTaskInput{
		Title:        &empty,
		EndDate:      &end,
		ParentTaskID: &self,
	})

	suite.Equal([]string{
		"Title cannot be empty.",
		"End Date must be on/after Start Date.",
		"A task cannot be its own parent.",
	}, suite.problems(err))
}

func (suite *TaskServiceTestSuite) TestUpdateTask_NotFoundAndInvisible() {
	task := suite.createAsManager("u-stf-1")
	title := "x"

	_, err := suite.service.UpdateTask(suite.viewer("u-mgr"), "missing", UpdateTaskInput{Title: &title})
	suite.ErrorIs(err, ErrTaskNotFound)

	_, err = suite.service.UpdateTask(suite.viewer("u-other"), task.ID, UpdateTaskInput{Title: &title})
	suite.ErrorIs(err, ErrTaskNotFound)

	_, err = suite.service.UpdateTask(suite.viewer("u-stf-2"), task.ID, UpdateTaskInput{Title: &title})
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_VersionCheck() {
	task := suite.createAsManager("u-stf-1")
	title := "First"
	stale := int64(1)

	updated, err := suite.service.UpdateTask(suite.viewer("u-mgr"), task.ID, UpdateTaskInput{Title: &title, ExpectedVersion: &stale})
	suite.Require().NoError(err)
	suite.Equal(int64(2), updated.Version)

	title = "Second"
	_, err = suite.service.UpdateTask(suite.viewer("u-mgr"), task.ID, UpdateTaskInput{Title: &title, ExpectedVersion: &stale})
	suite.ErrorIs(err, ErrVersionMismatch)
}

func (suite *TaskServiceTestSuite) TestListTasks_Visibility() {
	suite.createAsManager("u-mgr")
	staffOne := suite.createAsManager("u-stf-1")
	suite.createAsManager("u-stf-2")

	_, err := suite.service.CreateTask(suite.viewer("u-stf-9"), CreateTaskInput{
		Title: "Elsewhere", StartDate: "2025-09-17", EndDate: "2025-09-17", Priority: "Low",
	})
	suite.Require().NoError(err)

	managerTasks, err := suite.service.ListTasks(suite.viewer("u-mgr"), filter.Criteria{})
	suite.Require().NoError(err)
	suite.Len(managerTasks, 3)

	staffTasks, err := suite.service.ListTasks(suite.viewer("u-stf-1"), filter.Criteria{})
	suite.Require().NoError(err)
	suite.Require().Len(staffTasks, 1)
	suite.Equal(staffOne.ID, staffTasks[0].ID)

	otherTasks, err := suite.service.ListTasks(suite.viewer("u-other"), filter.Criteria{})
	suite.Require().NoError(err)
	suite.Require().Len(otherTasks, 1)
	suite.Equal("Elsewhere", otherTasks[0].Title)
}

func (suite *TaskServiceTestSuite) TestListTasksAndStats_WithCriteria() {
	suite.createAsManager("u-stf-1")
	_, err := suite.service.CreateTask(suite.viewer("u-stf-2"), CreateTaskInput{
		Title: "Due today", StartDate: "2025-09-17", EndDate: "2025-09-17", Priority: "Low",
	})
	suite.Require().NoError(err)

	tasks, err := suite.service.ListTasks(suite.viewer("u-mgr"), filter.Criteria{Deadline: filter.DeadlineToday})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal("Due today", tasks[0].Title)

	stats, err := suite.service.Stats(suite.viewer("u-mgr"), filter.Criteria{Assignee: "Sam Staff"})
	suite.Require().NoError(err)
	suite.Equal(filter.Summary{Total: 1, Active: 1}, stats)
}

func (suite *TaskServiceTestSuite) TestTimeline() {
	suite.createAsManager("u-stf-1")

	chart, err := suite.service.Timeline(suite.viewer("u-mgr"), time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), 7)
	suite.Require().NoError(err)
	suite.Len(chart.Columns, 6)
	suite.Require().Len(chart.Rows, 1)
	suite.Equal("u-stf-1", chart.Rows[0].OwnerID)

	_, err = suite.service.Timeline(suite.viewer("u-mgr"), fixedNow, 4)
	suite.ErrorIs(err, ErrInvalidInterval)
}

func (suite *TaskServiceTestSuite) TestAddComment() {
	task := suite.createAsManager("u-stf-1")

	_, err := suite.service.AddComment(suite.viewer("u-stf-1"), task.ID, "   ")
	suite.ErrorIs(err, ErrCommentEmpty)

	_, err = suite.service.AddComment(suite.viewer("u-stf-2"), task.ID, "hello")
	suite.ErrorIs(err, ErrTaskNotFound)

	comment, err := suite.service.AddComment(suite.viewer("u-stf-1"), task.ID, " On it ")
	suite.Require().NoError(err)
	suite.Equal("On it", comment.Message)
	suite.Equal("Sam Staff", comment.Author.Name)

	reloaded, err := suite.service.GetTask(suite.viewer("u-mgr"), task.ID)
	suite.Require().NoError(err)
	suite.Require().Len(reloaded.Comments, 1)
	suite.Equal("u-stf-1", reloaded.Comments[0].AuthorID)
}

type stubDrafter struct {
	drafts []DraftTask
	err    error
}

func (d stubDrafter) DraftTasks(context.Context, string, time.Time) ([]DraftTask, error) {
	return d.drafts, d.err
}

func (suite *TaskServiceTestSuite) TestDraftTasks() {
	_, err := suite.service.DraftTasks(context.Background(), "anything")
	suite.ErrorIs(err, ErrAIServiceNotConfigured)

	svc := NewTaskService(suite.repos.Tasks, suite.repos.Users, suite.repos.Projects, stubDrafter{drafts: []DraftTask{
		{Title: " Ship it ", Priority: "Urgent", StartDate: "2025-09-20", EndDate: "2025-09-18"},
		{Title: ""},
	}}, time.UTC)

	drafts, err := svc.DraftTasks(context.Background(), "ship it by friday")
	suite.Require().NoError(err)
	suite.Equal([]DraftTask{{Title: "Ship it", Priority: models.PriorityMedium}}, drafts)

	svc = NewTaskService(suite.repos.Tasks, suite.repos.Users, suite.repos.Projects, stubDrafter{}, time.UTC)
	_, err = svc.DraftTasks(context.Background(), "nothing")
	suite.ErrorIs(err, ErrAINoTasksGenerated)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
