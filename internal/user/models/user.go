package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the persistence model for locally mirrored users
type User struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	ExternalID string    `gorm:"type:varchar(128);uniqueIndex;not null"`
	Email      string    `gorm:"type:varchar(255);not null"`
	Name       string    `gorm:"type:varchar(255)"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate generates the primary key
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
