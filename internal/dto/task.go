package dto

import (
	"time"

	"github.com/tasktrack/tasktracker/internal/models"
)

// UserRefDTO is a user as embedded in task responses
type UserRefDTO struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role models.Role `json:"role,omitempty"`
}

// UserDTO is a directory entry
type UserDTO struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	Department string      `json:"department,omitempty"`
	ManagerID  *string     `json:"managerId,omitempty"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        string     `json:"id"`
	Author    UserRefDTO `json:"author"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	CreatedBy     UserRefDTO        `json:"createdBy"`
	OwnedBy       UserRefDTO        `json:"ownedBy"`
	Collaborators []UserRefDTO      `json:"collaborators"`
	StartDate     *time.Time        `json:"startDate"`
	EndDate       *time.Time        `json:"endDate"`
	ParentTaskID  *string           `json:"parentTaskId"`
	Tag           string            `json:"tag,omitempty"`
	Priority      models.Priority   `json:"priority"`
	Status        models.TaskStatus `json:"status"`
	Project       *ProjectDTO       `json:"project,omitempty"`
	Comments      []CommentDTO      `json:"comments"`
	Version       int64             `json:"version"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Conversion functions

// ToUserRefDTO converts a User model to UserRefDTO. An unloaded relation
// keeps the id only.
func ToUserRefDTO(id string, user models.User) UserRefDTO {
	return UserRefDTO{
		ID:   id,
		Name: user.Name,
		Role: user.Role,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:         user.ID,
		Name:       user.Name,
		Role:       user.Role,
		Department: user.Department,
		ManagerID:  user.ManagerID,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

// ToProjectDTOs converts a slice of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ProjectDTO{ID: p.ID, Name: p.Name}
	}
	return out
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		Author:    ToUserRefDTO(comment.AuthorID, comment.Author),
		Message:   comment.Message,
		CreatedAt: comment.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		CreatedBy:     ToUserRefDTO(task.CreatedByID, task.CreatedBy),
		OwnedBy:       ToUserRefDTO(task.OwnedByID, task.OwnedBy),
		Collaborators: make([]UserRefDTO, len(task.Collaborators)),
		StartDate:     task.StartDate,
		EndDate:       task.EndDate,
		ParentTaskID:  task.ParentTaskID,
		Tag:           task.Tag,
		Priority:      task.Priority,
		Status:        task.Status,
		Comments:      make([]CommentDTO, len(task.Comments)),
		Version:       task.Version,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}

	for i, c := range task.Collaborators {
		dto.Collaborators[i] = ToUserRefDTO(c.UserID, c.User)
	}
	for i, c := range task.Comments {
		dto.Comments[i] = ToCommentDTO(c)
	}
	if task.Project != nil {
		dto.Project = &ProjectDTO{ID: task.Project.ID, Name: task.Project.Name}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}

// TaskResponse wraps a single task
type TaskResponse struct {
	Task TaskDTO `json:"task"`
}

// TaskListResponse wraps the visible task list
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MeResponse describes the current viewer
type MeResponse struct {
	User              UserDTO  `json:"user"`
	AccessibleUserIDs []string `json:"accessibleUserIds"`
}
