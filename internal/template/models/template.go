package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	modelmodels "github.com/ashwood-health/scr-backend/internal/model/models"
	"gorm.io/gorm"
)

// Template is the GORM model for the templates table. Templates are
// hard-deleted: the partial unique default index must never match a
// soft-deleted row.
type Template struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	OwnerID string `gorm:"type:uuid;not null;index"`

	Title        string  `gorm:"type:varchar(255);not null"`
	Description  string  `gorm:"type:text"`
	Instructions string  `gorm:"type:text;not null"`
	Temperature  float32 `gorm:"not null;default:1"`
	IsDefault    bool    `gorm:"not null;default:false"`

	ModelID string            `gorm:"type:uuid;not null;index"`
	Model   modelmodels.Model `gorm:"foreignKey:ModelID"`

	AssistantTypeID string        `gorm:"type:uuid;not null;index"`
	AssistantType   AssistantType `gorm:"foreignKey:AssistantTypeID"`

	// Remote assistant resource handle; empty until provisioning succeeded
	AssistantID string `gorm:"type:varchar(64)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name
func (Template) TableName() string {
	return "templates"
}

// AssistantType is the GORM model for the fixed assistant type categories
type AssistantType struct {
	ID    string `gorm:"primaryKey;type:uuid"`
	Name  string `gorm:"type:varchar(64);not null;uniqueIndex:idx_assistant_types_name"`
	Tools []Tool `gorm:"foreignKey:AssistantTypeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name
func (AssistantType) TableName() string {
	return "assistant_types"
}

// Tool is the GORM model for an assistant type's tool descriptors
type Tool struct {
	ID              string `gorm:"primaryKey;type:uuid"`
	AssistantTypeID string `gorm:"type:uuid;not null;index"`

	Type        string `gorm:"type:varchar(32);not null"`
	Name        string `gorm:"type:varchar(128)"`
	Description string `gorm:"type:text"`
	Schema      JSON   `gorm:"type:jsonb"`
	Strict      bool   `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name
func (Tool) TableName() string {
	return "assistant_type_tools"
}

// TemplateSelection is the GORM model for explicit per-(user, type) template
// overrides. At most one row per (owner, assistant type).
type TemplateSelection struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	OwnerID string `gorm:"type:uuid;not null;uniqueIndex:idx_selections_owner_type"`

	AssistantTypeID string        `gorm:"type:uuid;not null;uniqueIndex:idx_selections_owner_type"`
	AssistantType   AssistantType `gorm:"foreignKey:AssistantTypeID"`

	TemplateID string   `gorm:"type:uuid;not null;index"`
	Template   Template `gorm:"foreignKey:TemplateID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name
func (TemplateSelection) TableName() string {
	return "template_selections"
}

// JSON is a custom type for raw JSON columns
type JSON json.RawMessage

// Scan implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = JSON(v)
	}
	return nil
}

// Value implements driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// MarshalJSON implements json.Marshaler
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = append((*j)[0:0], data...)
	return nil
}

// AutoMigrate runs database migrations for the template domain. The partial
// unique index keeps "two defaults for one (owner, type)" unrepresentable.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&AssistantType{},
		&Tool{},
		&Template{},
		&TemplateSelection{},
	); err != nil {
		return err
	}

	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_one_default
		 ON templates (owner_id, assistant_type_id) WHERE is_default`,
	).Error
}
