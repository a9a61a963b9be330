package data

import (
	"context"
	"errors"
	"fmt"

	modelmodels "github.com/ashwood-health/scr-backend/internal/model/models"
	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	"github.com/ashwood-health/scr-backend/internal/template/types"

	"gorm.io/gorm"
)

// ModelRefRepo resolves model external identifiers against the local registry
type ModelRefRepo struct {
	db *gorm.DB
}

// NewModelRefRepo creates a new model reference repository
func NewModelRefRepo(db *gorm.DB) *ModelRefRepo {
	return &ModelRefRepo{db: db}
}

// GetByOpenAIID looks up a registry row by its external model identifier
func (r *ModelRefRepo) GetByOpenAIID(ctx context.Context, openaiID string) (*types.ModelRef, error) {
	var model modelmodels.Model
	if err := r.db.WithContext(ctx).
		Where("openai_id = ?", openaiID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrModelNotFound, "model %s", openaiID)
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	return &types.ModelRef{ID: model.ID, OpenAIID: model.OpenAIID}, nil
}
