package models

import "time"

type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `json:"name"`
	Role         string     `gorm:"default:'user'" json:"role"` // admin, user
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	// Relationships
	AssignedLeads []Lead `gorm:"foreignKey:AssignedTo" json:"-"`
}

func (User) TableName() string {
	return "users"
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
