package models

import (
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the valid priorities in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is one of Priorities.
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusBlocked    TaskStatus = "Blocked"
	TaskStatusArchived   TaskStatus = "Archived"
)

// Statuses lists the valid statuses in workflow order.
var Statuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusBlocked,
	TaskStatusArchived,
}

// Valid reports whether s is one of Statuses.
func (s TaskStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Task struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	CreatedByID  string     `gorm:"type:varchar(64);not null;index" json:"created_by_id"`
	OwnedByID    string     `gorm:"type:varchar(64);not null;index" json:"owned_by_id"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `gorm:"index" json:"end_date"`
	ParentTaskID *string    `gorm:"type:varchar(36)" json:"parent_task_id"`
	Tag          string     `gorm:"type:varchar(100)" json:"tag"`
	Priority     Priority   `gorm:"type:varchar(20);not null;default:'Medium'" json:"priority"`
	Status       TaskStatus `gorm:"type:varchar(20);not null;default:'To Do';index" json:"status"`
	ProjectID    *uint64    `json:"project_id"`
	Version      int64      `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	CreatedBy     User               `gorm:"foreignKey:CreatedByID" json:"-"`
	OwnedBy       User               `gorm:"foreignKey:OwnedByID" json:"-"`
	Collaborators []TaskCollaborator `gorm:"foreignKey:TaskID" json:"-"`
	Comments      []Comment          `gorm:"foreignKey:TaskID" json:"-"`
	Project       *Project           `gorm:"foreignKey:ProjectID" json:"-"`
}

// CollaboratorIDs returns the collaborator user ids in list order.
func (t *Task) CollaboratorIDs() []string {
	ids := make([]string, 0, len(t.Collaborators))
	for _, c := range t.Collaborators {
		ids = append(ids, c.UserID)
	}
	return ids
}

// ProjectName returns the joined project name, or "" when the task has none.
func (t *Task) ProjectName() string {
	if t.Project == nil {
		return ""
	}
	return t.Project.Name
}
