package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwood-health/scr-backend/internal/model/biz"
	"github.com/ashwood-health/scr-backend/internal/model/models"
	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	templatemodels "github.com/ashwood-health/scr-backend/internal/template/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModelRepo implements the model registry repository using GORM
type ModelRepo struct {
	db *gorm.DB
}

// NewModelRepo creates a new model repository
func NewModelRepo(db *gorm.DB) *ModelRepo {
	return &ModelRepo{db: db}
}

// List lists all registry rows ordered by name
func (r *ModelRepo) List(ctx context.Context) ([]*biz.Model, error) {
	var modelList []models.Model
	if err := r.db.WithContext(ctx).Order("name").Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	result := make([]*biz.Model, 0, len(modelList))
	for i := range modelList {
		result = append(result, r.toDomain(&modelList[i]))
	}
	return result, nil
}

// GetByID retrieves a registry row by internal id
func (r *ModelRepo) GetByID(ctx context.Context, id string) (*biz.Model, error) {
	var model models.Model
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrModelNotFound, "model %s", id)
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return r.toDomain(&model), nil
}

// GetByOpenAIID retrieves a registry row by external model identifier
func (r *ModelRepo) GetByOpenAIID(ctx context.Context, openaiID string) (*biz.Model, error) {
	var model models.Model
	if err := r.db.WithContext(ctx).Where("openai_id = ?", openaiID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrModelNotFound, "model %s", openaiID)
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return r.toDomain(&model), nil
}

// Upsert creates or refreshes a registry row keyed by external identifier
func (r *ModelRepo) Upsert(ctx context.Context, model *biz.Model) error {
	po := &models.Model{
		ID:          model.ID,
		OpenAIID:    model.OpenAIID,
		Name:        model.Name,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "openai_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "updated_at"}),
	}).Create(po).Error; err != nil {
		return fmt.Errorf("failed to upsert model: %w", err)
	}
	return nil
}

// Delete removes a registry row
func (r *ModelRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Model{}).Error; err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	return nil
}

// CountTemplates counts templates referencing a model
func (r *ModelRepo) CountTemplates(ctx context.Context, modelID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&templatemodels.Template{}).
		Where("model_id = ?", modelID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	return count, nil
}

func (r *ModelRepo) toDomain(model *models.Model) *biz.Model {
	return &biz.Model{
		ID:          model.ID,
		OpenAIID:    model.OpenAIID,
		Name:        model.Name,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
