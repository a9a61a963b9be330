package data

import (
	"context"
	"fmt"
	"time"

	"github.com/ashwood-health/scr-backend/internal/template/models"
	"github.com/ashwood-health/scr-backend/internal/template/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SelectionRepo implements the template selection repository using GORM
type SelectionRepo struct {
	db *gorm.DB
}

// NewSelectionRepo creates a new selection repository
func NewSelectionRepo(db *gorm.DB) *SelectionRepo {
	return &SelectionRepo{db: db}
}

// Upsert creates or replaces the selection for (owner, assistant type)
func (r *SelectionRepo) Upsert(ctx context.Context, ownerID, assistantTypeID, templateID string) error {
	now := time.Now()
	selection := &models.TemplateSelection{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		AssistantTypeID: assistantTypeID,
		TemplateID:      templateID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "assistant_type_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"template_id": templateID,
			"updated_at":  now,
		}),
	}).Create(selection).Error; err != nil {
		return fmt.Errorf("failed to upsert template selection: %w", err)
	}
	return nil
}

// ListByOwner lists a user's explicit selections with their resolved
// template views
func (r *SelectionRepo) ListByOwner(ctx context.Context, ownerID string) ([]*types.Selection, error) {
	var modelList []models.TemplateSelection
	if err := r.db.WithContext(ctx).
		Preload("AssistantType").
		Preload("Template.Model").
		Preload("Template.AssistantType").
		Where("owner_id = ?", ownerID).
		Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to list template selections: %w", err)
	}

	templateRepo := &TemplateRepo{db: r.db}
	selections := make([]*types.Selection, 0, len(modelList))
	for i := range modelList {
		m := &modelList[i]
		selections = append(selections, &types.Selection{
			OwnerID:         m.OwnerID,
			AssistantTypeID: m.AssistantTypeID,
			AssistantType:   m.AssistantType.Name,
			TemplateID:      m.TemplateID,
			Template:        templateRepo.toDomain(&m.Template),
		})
	}
	return selections, nil
}
