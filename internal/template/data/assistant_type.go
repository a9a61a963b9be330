package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	"github.com/ashwood-health/scr-backend/internal/template/models"
	"github.com/ashwood-health/scr-backend/internal/template/types"

	"gorm.io/gorm"
)

// AssistantTypeRepo reads the fixed assistant type reference data
type AssistantTypeRepo struct {
	db *gorm.DB
}

// NewAssistantTypeRepo creates a new assistant type repository
func NewAssistantTypeRepo(db *gorm.DB) *AssistantTypeRepo {
	return &AssistantTypeRepo{db: db}
}

// GetByName retrieves an assistant type with its tools by name
func (r *AssistantTypeRepo) GetByName(ctx context.Context, name string) (*types.AssistantType, error) {
	var model models.AssistantType
	if err := r.db.WithContext(ctx).
		Preload("Tools").
		Where("name = ?", name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrAssistantTypeNotFound, "assistant type %s", name)
		}
		return nil, fmt.Errorf("failed to get assistant type: %w", err)
	}

	return r.toDomain(&model), nil
}

// List lists all assistant types with their tools
func (r *AssistantTypeRepo) List(ctx context.Context) ([]*types.AssistantType, error) {
	var modelList []models.AssistantType
	if err := r.db.WithContext(ctx).
		Preload("Tools").
		Order("name").
		Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to list assistant types: %w", err)
	}

	result := make([]*types.AssistantType, 0, len(modelList))
	for i := range modelList {
		result = append(result, r.toDomain(&modelList[i]))
	}
	return result, nil
}

func (r *AssistantTypeRepo) toDomain(model *models.AssistantType) *types.AssistantType {
	tools := make([]types.Tool, 0, len(model.Tools))
	for _, t := range model.Tools {
		tools = append(tools, types.Tool{
			Type:        types.ToolType(t.Type),
			Name:        t.Name,
			Description: t.Description,
			Parameters:  json.RawMessage(t.Schema),
			Strict:      t.Strict,
		})
	}

	return &types.AssistantType{
		ID:    model.ID,
		Name:  model.Name,
		Tools: tools,
	}
}
