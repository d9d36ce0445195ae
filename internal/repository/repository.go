package repository

import (
	"errors"

	"github.com/tasktrack/tasktracker/internal/models"
)

var (
	// ErrRecordNotFound is returned when a lookup by id matches nothing.
	ErrRecordNotFound = errors.New("repository: record not found")
	// ErrVersionConflict is returned when a conditional update finds a newer version.
	ErrVersionConflict = errors.New("repository: version conflict")
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create inserts a task together with its collaborator rows
	Create(task *models.Task) error

	// FindByID finds a task by ID with its relations loaded
	FindByID(id string) (*models.Task, error)

	// Exists reports whether a task with the given ID exists
	Exists(id string) (bool, error)

	// List retrieves tasks matching the filter, oldest first
	List(filter TaskFilter) ([]models.Task, error)

	// Update writes the task if the stored version still equals expectedVersion,
	// replacing its collaborator rows and bumping the version
	Update(task *models.Task, expectedVersion int64) error

	// AddComment appends a comment to a task
	AddComment(comment *models.Comment) error
}

// TaskFilter holds the store-level scoping for listing tasks
type TaskFilter struct {
	OwnerIDs []string
}

// UserRepository defines the interface for directory data access
type UserRepository interface {
	// Save creates or replaces a user
	Save(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByIDs returns the users among ids that exist
	FindByIDs(ids []string) ([]models.User, error)

	// ListBySupervisor lists the direct reports of a manager
	ListBySupervisor(managerID string) ([]models.User, error)

	// List lists every user ordered by name
	List() ([]models.User, error)
}

// ProjectRepository defines the interface for project lookups
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// List lists every project ordered by name
	List() ([]models.Project, error)
}

// Set bundles the repositories backed by one store.
type Set struct {
	Tasks    TaskRepository
	Users    UserRepository
	Projects ProjectRepository
}
