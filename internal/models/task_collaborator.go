package models

import "time"

type TaskCollaborator struct {
	TaskID    string    `gorm:"primaryKey;type:varchar(36)" json:"task_id"`
	UserID    string    `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
