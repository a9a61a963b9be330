package biz

import (
	"context"
	"time"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"
	"github.com/ashwood-health/scr-backend/internal/template/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateRepo defines the repository interface for template persistence.
// Implementations must make Create and Update atomic with any default
// clearing they are asked to perform.
type TemplateRepo interface {
	Create(ctx context.Context, tpl *types.Template) error
	GetByID(ctx context.Context, id, ownerID string) (*types.Template, error)
	List(ctx context.Context) ([]*types.Template, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*types.Template, error)
	ListDefaults(ctx context.Context, ownerID string) ([]*types.Template, error)
	Update(ctx context.Context, id string, fields map[string]interface{}, clearDefaultFor *types.DefaultKey) error
	SetDefault(ctx context.Context, ownerID, assistantTypeID, templateID string) error
	ClearDefault(ctx context.Context, ownerID, assistantTypeID string) error
	Delete(ctx context.Context, id string) error
}

// AssistantTypeRepo reads the fixed assistant type reference data
type AssistantTypeRepo interface {
	GetByName(ctx context.Context, name string) (*types.AssistantType, error)
	List(ctx context.Context) ([]*types.AssistantType, error)
}

// ModelRepo resolves model external identifiers to registry rows
type ModelRepo interface {
	GetByOpenAIID(ctx context.Context, openaiID string) (*types.ModelRef, error)
}

// AssistantProvider is the contract with the remote assistant resource.
// Implementations wrap every provider-side failure into the assistant
// provision error code with the original message preserved.
type AssistantProvider interface {
	Create(ctx context.Context, spec *types.AssistantSpec) (string, error)
	Update(ctx context.Context, handle string, spec *types.AssistantSpec) error
	Delete(ctx context.Context, handle string) error
}

// TemplateUseCase owns template records and keeps them synchronized with
// their remote assistant resources
type TemplateUseCase struct {
	repo     TemplateRepo
	typeRepo AssistantTypeRepo
	models   ModelRepo
	provider AssistantProvider
	logger   *logger.Logger
}

// NewTemplateUseCase creates a new template use case
func NewTemplateUseCase(
	repo TemplateRepo,
	typeRepo AssistantTypeRepo,
	models ModelRepo,
	provider AssistantProvider,
	log *logger.Logger,
) *TemplateUseCase {
	return &TemplateUseCase{
		repo:     repo,
		typeRepo: typeRepo,
		models:   models,
		provider: provider,
		logger:   log,
	}
}

// CreateTemplateRequest represents a request to create a template
type CreateTemplateRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	Instructions  string  `json:"instructions" binding:"required"`
	Model         string  `json:"model" binding:"required"`
	Temperature   float32 `json:"temperature"`
	IsDefault     bool    `json:"isDefault"`
	AssistantType string  `json:"assistantType" binding:"required"`
}

// Validate validates the create template request
func (r *CreateTemplateRequest) Validate() error {
	if r.Title == "" {
		return apperrors.New(apperrors.ErrInvalidParams, "title is required")
	}
	if r.Instructions == "" {
		return apperrors.New(apperrors.ErrInvalidParams, "instructions are required")
	}
	if r.Model == "" {
		return apperrors.New(apperrors.ErrInvalidParams, "model is required")
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return apperrors.New(apperrors.ErrInvalidParams, "temperature must be between 0 and 2")
	}
	return nil
}

// UpdateTemplateRequest represents a partial template update. Nil means the
// field was omitted and keeps its current value; a non-nil pointer to a zero
// value (temperature 0, isDefault false) is a real update.
type UpdateTemplateRequest struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Instructions  *string  `json:"instructions"`
	Model         *string  `json:"model"`
	Temperature   *float32 `json:"temperature"`
	IsDefault     *bool    `json:"isDefault"`
	AssistantType *string  `json:"assistantType"`
}

// touchesRemote reports whether the update changes anything mirrored on the
// remote assistant resource
func (r *UpdateTemplateRequest) touchesRemote() bool {
	return r.Title != nil || r.Instructions != nil || r.Model != nil ||
		r.Temperature != nil || r.AssistantType != nil
}

// CreateTemplate provisions the remote assistant resource and persists the
// template record. No local row is created when provisioning fails. Retrying
// after a local persist failure may create a duplicate remote resource; no
// idempotency key is enforced here.
func (uc *TemplateUseCase) CreateTemplate(ctx context.Context, ownerID string, req *CreateTemplateRequest) (*types.Template, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model, err := uc.models.GetByOpenAIID(ctx, req.Model)
	if err != nil {
		return nil, err
	}

	assistantType, err := uc.typeRepo.GetByName(ctx, req.AssistantType)
	if err != nil {
		return nil, err
	}

	handle, err := uc.provider.Create(ctx, &types.AssistantSpec{
		Name:         req.Title,
		Instructions: req.Instructions,
		Model:        req.Model,
		Tools:        assistantType.Tools,
		Temperature:  req.Temperature,
	})
	if err != nil {
		uc.logger.Error("failed to provision remote assistant",
			zap.String("operation", "create_template"),
			zap.Error(err))
		return nil, err
	}

	now := time.Now()
	tpl := &types.Template{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Title:           req.Title,
		Description:     req.Description,
		Instructions:    req.Instructions,
		ModelID:         model.ID,
		Temperature:     req.Temperature,
		IsDefault:       req.IsDefault,
		AssistantTypeID: assistantType.ID,
		AssistantID:     handle,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.repo.Create(ctx, tpl); err != nil {
		uc.logger.Error("failed to persist template, rolling back remote assistant",
			zap.String("operation", "create_template"),
			zap.String("assistant_id", handle),
			zap.Error(err))

		// Best-effort: the remote resource is orphaned otherwise
		if delErr := uc.provider.Delete(ctx, handle); delErr != nil {
			uc.logger.Warn("failed to roll back remote assistant",
				zap.String("assistant_id", handle),
				zap.Error(delErr))
		}
		return nil, err
	}

	return uc.repo.GetByID(ctx, tpl.ID, "")
}

// UpdateTemplate applies a partial update. When any remote-mirrored field is
// supplied and a resource handle exists, the remote assistant is updated
// first with the merged parameter set; a remote failure aborts the local
// write.
func (uc *TemplateUseCase) UpdateTemplate(ctx context.Context, id, ownerID string, req *UpdateTemplateRequest) (*types.Template, error) {
	current, err := uc.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}

	assistantType, err := uc.typeRepo.GetByName(ctx, current.AssistantType)
	if err != nil {
		return nil, err
	}

	resolvedTypeID := current.AssistantTypeID
	if req.AssistantType != nil {
		newType, err := uc.typeRepo.GetByName(ctx, *req.AssistantType)
		if err != nil {
			return nil, err
		}
		// Tool set follows the new type
		assistantType = newType
		resolvedTypeID = newType.ID
		fields["assistant_type_id"] = newType.ID
	}

	if req.Model != nil {
		model, err := uc.models.GetByOpenAIID(ctx, *req.Model)
		if err != nil {
			return nil, err
		}
		fields["model_id"] = model.ID
	}

	if req.touchesRemote() && current.AssistantID != "" {
		spec := &types.AssistantSpec{
			Name:         merge(req.Title, current.Title),
			Instructions: merge(req.Instructions, current.Instructions),
			Model:        merge(req.Model, current.Model),
			Tools:        assistantType.Tools,
			Temperature:  merge(req.Temperature, current.Temperature),
		}
		if err := uc.provider.Update(ctx, current.AssistantID, spec); err != nil {
			uc.logger.Error("failed to update remote assistant",
				zap.String("operation", "update_template"),
				zap.String("template_id", id),
				zap.String("assistant_id", current.AssistantID),
				zap.Error(err))
			return nil, err
		}
	}

	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Instructions != nil {
		fields["instructions"] = *req.Instructions
	}
	if req.Temperature != nil {
		fields["temperature"] = *req.Temperature
	}
	if req.IsDefault != nil {
		fields["is_default"] = *req.IsDefault
	}
	fields["updated_at"] = time.Now()

	var clearFor *types.DefaultKey
	if req.IsDefault != nil && *req.IsDefault {
		clearFor = &types.DefaultKey{
			OwnerID:         current.OwnerID,
			AssistantTypeID: resolvedTypeID,
		}
	}

	if err := uc.repo.Update(ctx, id, fields, clearFor); err != nil {
		uc.logger.Error("failed to update template",
			zap.String("operation", "update_template"),
			zap.String("template_id", id),
			zap.Error(err))
		return nil, err
	}

	return uc.repo.GetByID(ctx, id, "")
}

// DeleteTemplate deletes the remote assistant resource (best-effort: a
// failure is logged and the local deletion proceeds, an orphaned remote
// assistant being lower-cost than an undeletable template), then removes the
// template row and any selections referencing it.
func (uc *TemplateUseCase) DeleteTemplate(ctx context.Context, id, ownerID string) error {
	tpl, err := uc.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if tpl.AssistantID != "" {
		if err := uc.provider.Delete(ctx, tpl.AssistantID); err != nil {
			uc.logger.Warn("failed to delete remote assistant, proceeding with local deletion",
				zap.String("operation", "delete_template"),
				zap.String("template_id", id),
				zap.String("assistant_id", tpl.AssistantID),
				zap.Error(err))
		}
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		uc.logger.Error("failed to delete template",
			zap.String("operation", "delete_template"),
			zap.String("template_id", id),
			zap.Error(err))
		return err
	}
	return nil
}

// DeleteTemplatesByOwner removes every template a user owns, including their
// remote assistant resources. Used when an identity-provider deletion event
// arrives.
func (uc *TemplateUseCase) DeleteTemplatesByOwner(ctx context.Context, ownerID string) error {
	templates, err := uc.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	for _, tpl := range templates {
		if err := uc.DeleteTemplate(ctx, tpl.ID, ownerID); err != nil {
			return err
		}
	}
	return nil
}

// ListTemplates lists all templates
func (uc *TemplateUseCase) ListTemplates(ctx context.Context) ([]*types.Template, error) {
	return uc.repo.List(ctx)
}

// GetTemplate retrieves a template by id, optionally restricted to an owner
func (uc *TemplateUseCase) GetTemplate(ctx context.Context, id, ownerID string) (*types.Template, error) {
	return uc.repo.GetByID(ctx, id, ownerID)
}

// merge returns the override when supplied, the current value otherwise
func merge[T any](override *T, current T) T {
	if override != nil {
		return *override
	}
	return current
}
