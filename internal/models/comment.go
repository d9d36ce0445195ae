package models

import "time"

type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TaskID    string    `gorm:"type:varchar(36);not null;index" json:"task_id"`
	AuthorID  string    `gorm:"type:varchar(64);not null" json:"author_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}
