package models

import "time"

// Model is the GORM model for the mirrored OpenAI model registry
type Model struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	OpenAIID    string `gorm:"type:varchar(255);not null;uniqueIndex:idx_models_openai_id"`
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name
func (Model) TableName() string {
	return "openai_models"
}
