package models

import "github.com/google/uuid"

// LeadNote is an append-only annotation on a lead. Notes are never
// edited or deleted, only added.
type LeadNote struct {
	Base
	LeadID  uuid.UUID `gorm:"type:uuid;index;not null" json:"lead_id"`
	UserID  uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Content string    `gorm:"not null" json:"content"`

	// Relationships
	Lead *Lead `gorm:"foreignKey:LeadID" json:"-"`
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (LeadNote) TableName() string {
	return "lead_notes"
}
