package biz

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Model is a registry row mirroring an available document-AI model
type Model struct {
	ID          string    `json:"id"`
	OpenAIID    string    `json:"openAIId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ModelRepo defines the repository interface for the model registry
type ModelRepo interface {
	List(ctx context.Context) ([]*Model, error)
	GetByID(ctx context.Context, id string) (*Model, error)
	GetByOpenAIID(ctx context.Context, openaiID string) (*Model, error)
	Upsert(ctx context.Context, model *Model) error
	Delete(ctx context.Context, id string) error
	CountTemplates(ctx context.Context, modelID string) (int64, error)
}

// CatalogModel is a model entry as reported by the provider
type CatalogModel struct {
	ID      string
	OwnedBy string
}

// CatalogProvider lists and retrieves models from the remote provider
type CatalogProvider interface {
	ListModels(ctx context.Context) ([]*CatalogModel, error)
	RetrieveModel(ctx context.Context, openaiID string) (*CatalogModel, error)
}

// SyncStateStore keeps sync bookkeeping (last-synced time, sync lock)
type SyncStateStore interface {
	LastSynced(ctx context.Context) (time.Time, error)
	SetLastSynced(ctx context.Context, t time.Time) error
	TryLock(ctx context.Context, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context) error
}

// ModelUseCase contains business logic for the model registry
type ModelUseCase struct {
	repo     ModelRepo
	provider CatalogProvider
	state    SyncStateStore
	logger   *logger.Logger
}

// NewModelUseCase creates a new model use case
func NewModelUseCase(repo ModelRepo, provider CatalogProvider, state SyncStateStore, log *logger.Logger) *ModelUseCase {
	return &ModelUseCase{
		repo:     repo,
		provider: provider,
		state:    state,
		logger:   log,
	}
}

// ListModels lists the local registry with the last sync time
func (uc *ModelUseCase) ListModels(ctx context.Context) ([]*Model, time.Time, error) {
	models, err := uc.repo.List(ctx)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to list models: %w", err)
	}

	lastSynced, err := uc.state.LastSynced(ctx)
	if err != nil {
		// Bookkeeping only; the registry itself is authoritative
		uc.logger.Warn("failed to read model sync state", zap.Error(err))
	}

	return models, lastSynced, nil
}

// ImportModel mirrors one model from the provider into the registry,
// refreshing metadata when it already exists
func (uc *ModelUseCase) ImportModel(ctx context.Context, openaiID string) (*Model, error) {
	remote, err := uc.provider.RetrieveModel(ctx, openaiID)
	if err != nil {
		return nil, err
	}

	model, err := uc.repo.GetByOpenAIID(ctx, remote.ID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrModelNotFound) {
			return nil, err
		}
		model = &Model{
			ID:        uuid.New().String(),
			OpenAIID:  remote.ID,
			CreatedAt: time.Now(),
		}
	}

	model.Name = remote.ID
	model.Description = fmt.Sprintf("OpenAI %s model", remote.ID)
	model.UpdatedAt = time.Now()

	if err := uc.repo.Upsert(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to import model: %w", err)
	}

	uc.logger.Info("model imported", zap.String("model", remote.ID))
	return model, nil
}

// RemoveModel deletes a registry row; refused while templates reference it
func (uc *ModelUseCase) RemoveModel(ctx context.Context, id string) error {
	if _, err := uc.repo.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := uc.repo.CountTemplates(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count templates for model: %w", err)
	}
	if count > 0 {
		return apperrors.Newf(apperrors.ErrModelInUse, "model %s is referenced by %d templates", id, count)
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	return nil
}

// SyncModels mirrors the provider catalog into the registry. Concurrent
// syncs are skipped via the state-store lock.
func (uc *ModelUseCase) SyncModels(ctx context.Context) (int, error) {
	locked, err := uc.state.TryLock(ctx, 5*time.Minute)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !locked {
		uc.logger.Info("model sync already in progress, skipping")
		return 0, nil
	}
	defer func() {
		if err := uc.state.Unlock(ctx); err != nil {
			uc.logger.Warn("failed to release model sync lock", zap.Error(err))
		}
	}()

	remote, err := uc.provider.ListModels(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, cm := range remote {
		model, err := uc.repo.GetByOpenAIID(ctx, cm.ID)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrModelNotFound) {
				return synced, err
			}
			model = &Model{
				ID:        uuid.New().String(),
				OpenAIID:  cm.ID,
				CreatedAt: time.Now(),
			}
		}

		model.Name = cm.ID
		model.Description = fmt.Sprintf("OpenAI %s model", cm.ID)
		model.UpdatedAt = time.Now()

		if err := uc.repo.Upsert(ctx, model); err != nil {
			return synced, fmt.Errorf("failed to upsert model %s: %w", cm.ID, err)
		}
		synced++
	}

	if err := uc.state.SetLastSynced(ctx, time.Now()); err != nil {
		uc.logger.Warn("failed to record model sync time", zap.Error(err))
	}

	uc.logger.Info("model registry synced", zap.Int("count", synced))
	return synced, nil
}
