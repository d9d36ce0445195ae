package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// ParseRole maps a role name or legacy numeric role code to a Role.
// Unrecognized values map to the empty Role.
func ParseRole(code string) Role {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "manager", "2":
		return RoleManager
	case "staff", "3":
		return RoleStaff
	default:
		return ""
	}
}

// IsManager reports whether the role may reassign owners, set status and
// replace collaborator lists.
func (r Role) IsManager() bool {
	return r == RoleManager
}

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Role         Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	Department   string    `gorm:"type:varchar(100)" json:"department,omitempty"`
	ManagerID    *string   `gorm:"type:varchar(64);index" json:"manager_id,omitempty"`
	PasswordHash string    `gorm:"type:varchar(255)" json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
