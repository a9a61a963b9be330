package biz

import (
	"context"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"
	"github.com/ashwood-health/scr-backend/internal/template/types"

	"go.uber.org/zap"
)

// SelectionRepo defines the repository interface for explicit template
// selections
type SelectionRepo interface {
	Upsert(ctx context.Context, ownerID, assistantTypeID, templateID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*types.Selection, error)
}

// SelectionUseCase resolves which template is active per (user, assistant
// type): the explicit selection, falling back to the type's default
type SelectionUseCase struct {
	repo       TemplateRepo
	selections SelectionRepo
	typeRepo   AssistantTypeRepo
	logger     *logger.Logger
}

// NewSelectionUseCase creates a new selection use case
func NewSelectionUseCase(
	repo TemplateRepo,
	selections SelectionRepo,
	typeRepo AssistantTypeRepo,
	log *logger.Logger,
) *SelectionUseCase {
	return &SelectionUseCase{
		repo:       repo,
		selections: selections,
		typeRepo:   typeRepo,
		logger:     log,
	}
}

// SetDefaultTemplate marks a template as the default for (owner, type). The
// template must exist, belong to the owner, and belong to the named type;
// anything else is NotFound so defaults cannot be hijacked across owners or
// types. Clear and set are atomic to readers.
func (uc *SelectionUseCase) SetDefaultTemplate(ctx context.Context, ownerID, templateID, typeName string) (*types.Template, error) {
	if !types.IsValidAssistantType(typeName) {
		return nil, apperrors.Newf(apperrors.ErrInvalidAssistantType, "assistant type %s", typeName)
	}

	assistantType, err := uc.typeRepo.GetByName(ctx, typeName)
	if err != nil {
		return nil, err
	}

	tpl, err := uc.repo.GetByID(ctx, templateID, ownerID)
	if err != nil {
		return nil, err
	}
	if tpl.AssistantTypeID != assistantType.ID {
		return nil, apperrors.Newf(apperrors.ErrTemplateNotFound,
			"template %s does not belong to assistant type %s", templateID, typeName)
	}

	if err := uc.repo.SetDefault(ctx, ownerID, assistantType.ID, templateID); err != nil {
		uc.logger.Error("failed to set default template",
			zap.String("operation", "set_default_template"),
			zap.String("template_id", templateID),
			zap.Error(err))
		return nil, err
	}

	return uc.repo.GetByID(ctx, templateID, "")
}

// RemoveDefaultTemplate clears the default for (owner, type). Idempotent:
// a second call is a no-op.
func (uc *SelectionUseCase) RemoveDefaultTemplate(ctx context.Context, ownerID, typeName string) error {
	if !types.IsValidAssistantType(typeName) {
		return apperrors.Newf(apperrors.ErrInvalidAssistantType, "assistant type %s", typeName)
	}

	assistantType, err := uc.typeRepo.GetByName(ctx, typeName)
	if err != nil {
		return err
	}

	if err := uc.repo.ClearDefault(ctx, ownerID, assistantType.ID); err != nil {
		uc.logger.Error("failed to remove default template",
			zap.String("operation", "remove_default_template"),
			zap.String("assistant_type", typeName),
			zap.Error(err))
		return err
	}
	return nil
}

// GetDefaultTemplates returns a mapping from assistant type name to the
// user's current default template; types without a default are absent
func (uc *SelectionUseCase) GetDefaultTemplates(ctx context.Context, ownerID string) (map[string]*types.Template, error) {
	defaults, err := uc.repo.ListDefaults(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*types.Template, len(defaults))
	for _, tpl := range defaults {
		result[tpl.AssistantType] = tpl
	}
	return result, nil
}

// GetTemplateSelections resolves the active template for each well-known
// assistant type: the explicit selection when present, else the type's
// default, else nil. This is the resolution order consumed by the
// document-AI boundary when no template id is supplied.
func (uc *SelectionUseCase) GetTemplateSelections(ctx context.Context, ownerID string) (*types.SelectionView, error) {
	selections, err := uc.selections.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	defaults, err := uc.repo.ListDefaults(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	resolve := func(typeName string) *types.Template {
		for _, s := range selections {
			if s.AssistantType == typeName {
				return s.Template
			}
		}
		for _, tpl := range defaults {
			if tpl.AssistantType == typeName {
				return tpl
			}
		}
		return nil
	}

	return &types.SelectionView{
		Extraction: resolve(types.AssistantTypeExtraction),
		CSV:        resolve(types.AssistantTypeCSV),
	}, nil
}

// UpdateTemplateSelection upserts the explicit selection for (owner, type).
// Default flags are untouched. The template must exist, be owned by the
// caller, and belong to the given type.
func (uc *SelectionUseCase) UpdateTemplateSelection(ctx context.Context, ownerID, assistantTypeID, templateID string) error {
	tpl, err := uc.repo.GetByID(ctx, templateID, ownerID)
	if err != nil {
		return err
	}
	if tpl.AssistantTypeID != assistantTypeID {
		return apperrors.Newf(apperrors.ErrTemplateNotFound,
			"template %s does not belong to assistant type %s", templateID, assistantTypeID)
	}

	if err := uc.selections.Upsert(ctx, ownerID, assistantTypeID, templateID); err != nil {
		uc.logger.Error("failed to update template selection",
			zap.String("operation", "update_template_selection"),
			zap.String("template_id", templateID),
			zap.Error(err))
		return err
	}
	return nil
}
