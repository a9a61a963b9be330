package data

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	"github.com/ashwood-health/scr-backend/internal/template/models"
	"github.com/ashwood-health/scr-backend/internal/template/types"

	"gorm.io/gorm"
)

// TemplateRepo implements the template repository using GORM
type TemplateRepo struct {
	db *gorm.DB
}

// NewTemplateRepo creates a new template repository
func NewTemplateRepo(db *gorm.DB) *TemplateRepo {
	return &TemplateRepo{db: db}
}

// Create inserts a new template. When the template is marked default, any
// existing default for the same (owner, assistant type) is cleared in the
// same transaction so readers never observe two defaults.
func (r *TemplateRepo) Create(ctx context.Context, tpl *types.Template) error {
	model := r.toModel(tpl)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tpl.IsDefault {
			if err := clearDefault(tx, tpl.OwnerID, tpl.AssistantTypeID, ""); err != nil {
				return err
			}
		}

		if err := tx.Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Wrapf(err, apperrors.ErrDefaultConflict,
					"default already set for owner %s type %s", tpl.OwnerID, tpl.AssistantTypeID)
			}
			return fmt.Errorf("failed to create template: %w", err)
		}
		return nil
	})
}

// GetByID retrieves the joined template view. An empty ownerID skips the
// ownership restriction.
func (r *TemplateRepo) GetByID(ctx context.Context, id, ownerID string) (*types.Template, error) {
	query := r.db.WithContext(ctx).
		Preload("Model").
		Preload("AssistantType").
		Where("id = ?", id)
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}

	var model models.Template
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrTemplateNotFound, "template %s", id)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return r.toDomain(&model), nil
}

// List lists all templates, newest first
func (r *TemplateRepo) List(ctx context.Context) ([]*types.Template, error) {
	return r.list(ctx, r.db.WithContext(ctx))
}

// ListByOwner lists a user's templates, newest first
func (r *TemplateRepo) ListByOwner(ctx context.Context, ownerID string) ([]*types.Template, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("owner_id = ?", ownerID))
}

// ListDefaults lists a user's default templates across all assistant types
func (r *TemplateRepo) ListDefaults(ctx context.Context, ownerID string) ([]*types.Template, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("owner_id = ? AND is_default", ownerID))
}

func (r *TemplateRepo) list(ctx context.Context, query *gorm.DB) ([]*types.Template, error) {
	var modelList []models.Template
	if err := query.
		Preload("Model").
		Preload("AssistantType").
		Order("created_at DESC").
		Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	templates := make([]*types.Template, 0, len(modelList))
	for i := range modelList {
		templates = append(templates, r.toDomain(&modelList[i]))
	}
	return templates, nil
}

// Update persists only the supplied fields. When clearDefaultFor is set, the
// previous default for that (owner, type) is cleared in the same transaction.
func (r *TemplateRepo) Update(ctx context.Context, id string, fields map[string]interface{}, clearDefaultFor *types.DefaultKey) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clearDefaultFor != nil {
			if err := clearDefault(tx, clearDefaultFor.OwnerID, clearDefaultFor.AssistantTypeID, id); err != nil {
				return err
			}
		}

		res := tx.Model(&models.Template{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return apperrors.Wrapf(res.Error, apperrors.ErrDefaultConflict, "template %s", id)
			}
			return fmt.Errorf("failed to update template: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Newf(apperrors.ErrTemplateNotFound, "template %s", id)
		}
		return nil
	})
}

// SetDefault marks a template as the default for (owner, type), clearing the
// previous default in the same transaction.
func (r *TemplateRepo) SetDefault(ctx context.Context, ownerID, assistantTypeID, templateID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefault(tx, ownerID, assistantTypeID, templateID); err != nil {
			return err
		}

		res := tx.Model(&models.Template{}).
			Where("id = ? AND owner_id = ?", templateID, ownerID).
			Update("is_default", true)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return apperrors.Wrapf(res.Error, apperrors.ErrDefaultConflict, "template %s", templateID)
			}
			return fmt.Errorf("failed to set default template: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Newf(apperrors.ErrTemplateNotFound, "template %s", templateID)
		}
		return nil
	})
}

// ClearDefault unsets the default flag for (owner, type). No-op when no
// default exists.
func (r *TemplateRepo) ClearDefault(ctx context.Context, ownerID, assistantTypeID string) error {
	return clearDefault(r.db.WithContext(ctx), ownerID, assistantTypeID, "")
}

// Delete removes the template row and every selection row referencing it in
// one transaction. The remote assistant resource is the caller's concern.
func (r *TemplateRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", id).
			Delete(&models.TemplateSelection{}).Error; err != nil {
			return fmt.Errorf("failed to delete template selections: %w", err)
		}

		res := tx.Where("id = ?", id).Delete(&models.Template{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete template: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Newf(apperrors.ErrTemplateNotFound, "template %s", id)
		}
		return nil
	})
}

// clearDefault unsets any default for (owner, type), optionally excluding one
// template id (the one about to become the default).
func clearDefault(tx *gorm.DB, ownerID, assistantTypeID, excludeID string) error {
	query := tx.Model(&models.Template{}).
		Where("owner_id = ? AND assistant_type_id = ? AND is_default", ownerID, assistantTypeID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	if err := query.Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to clear default template: %w", err)
	}
	return nil
}

// toModel converts the domain template to its GORM model
func (r *TemplateRepo) toModel(tpl *types.Template) *models.Template {
	return &models.Template{
		ID:              tpl.ID,
		OwnerID:         tpl.OwnerID,
		Title:           tpl.Title,
		Description:     tpl.Description,
		Instructions:    tpl.Instructions,
		Temperature:     tpl.Temperature,
		IsDefault:       tpl.IsDefault,
		ModelID:         tpl.ModelID,
		AssistantTypeID: tpl.AssistantTypeID,
		AssistantID:     tpl.AssistantID,
		CreatedAt:       tpl.CreatedAt,
		UpdatedAt:       tpl.UpdatedAt,
	}
}

// toDomain converts the GORM model (with preloaded associations) to the
// joined domain view
func (r *TemplateRepo) toDomain(model *models.Template) *types.Template {
	return &types.Template{
		ID:              model.ID,
		OwnerID:         model.OwnerID,
		Title:           model.Title,
		Description:     model.Description,
		Instructions:    model.Instructions,
		Model:           model.Model.OpenAIID,
		ModelID:         model.ModelID,
		Temperature:     model.Temperature,
		IsDefault:       model.IsDefault,
		AssistantType:   model.AssistantType.Name,
		AssistantTypeID: model.AssistantTypeID,
		AssistantID:     model.AssistantID,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}
