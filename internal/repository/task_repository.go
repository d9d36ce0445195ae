package repository

import (
	"errors"

	"github.com/tasktrack/tasktracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// NewGormSet wires the GORM repositories onto one connection.
func NewGormSet(db *gorm.DB) Set {
	return Set{
		Tasks:    NewTaskRepository(db),
		Users:    NewUserRepository(db),
		Projects: NewProjectRepository(db),
	}
}

func (r *GormTaskRepository) withRelations() *gorm.DB {
	return r.db.
		Preload("CreatedBy").
		Preload("OwnedBy").
		Preload("Collaborators", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_collaborators.position ASC")
		}).
		Preload("Collaborators.User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.Author").
		Preload("Project")
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}
		return insertCollaborators(tx, task)
	})
}

// FindByID finds a task by ID with its relations loaded
func (r *GormTaskRepository) FindByID(id string) (*models.Task, error) {
	var task models.Task
	if err := r.withRelations().First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Exists reports whether a task with the given ID exists
func (r *GormTaskRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves tasks owned by any of the filter's owners
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	if len(filter.OwnerIDs) == 0 {
		return []models.Task{}, nil
	}

	var tasks []models.Task
	if err := r.withRelations().
		Where("tasks.owned_by_id IN ?", filter.OwnerIDs).
		Order("tasks.created_at ASC").
		Order("tasks.id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update writes the task guarded by its version
func (r *GormTaskRepository) Update(task *models.Task, expectedVersion int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Where("id = ? AND version = ?", task.ID, expectedVersion).
			Updates(map[string]interface{}{
				"title":          task.Title,
				"description":    task.Description,
				"owned_by_id":    task.OwnedByID,
				"start_date":     task.StartDate,
				"end_date":       task.EndDate,
				"parent_task_id": task.ParentTaskID,
				"tag":            task.Tag,
				"priority":       task.Priority,
				"status":         task.Status,
				"project_id":     task.ProjectID,
				"version":        expectedVersion + 1,
				"updated_at":     task.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskCollaborator{}).Error; err != nil {
			return err
		}
		return insertCollaborators(tx, task)
	})
	if err != nil {
		return err
	}

	task.Version = expectedVersion + 1
	return nil
}

// AddComment appends a comment to a task
func (r *GormTaskRepository) AddComment(comment *models.Comment) error {
	return r.db.Omit(clause.Associations).Create(comment).Error
}

func insertCollaborators(tx *gorm.DB, task *models.Task) error {
	if len(task.Collaborators) == 0 {
		return nil
	}

	rows := make([]models.TaskCollaborator, len(task.Collaborators))
	for i, c := range task.Collaborators {
		rows[i] = models.TaskCollaborator{
			TaskID:   task.ID,
			UserID:   c.UserID,
			Position: i,
		}
	}

	return tx.Omit(clause.Associations).Create(&rows).Error
}
