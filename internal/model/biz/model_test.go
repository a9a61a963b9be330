package biz

import (
	"context"
	"testing"
	"time"

	"github.com/ashwood-health/scr-backend/internal/pkg/logger"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{
		Level:  "error",
		Format: "console",
		Output: "console",
	})
	require.NoError(t, err)
	return log
}

type fakeModelRepo struct {
	models        map[string]*Model
	templateCount map[string]int64
}

func newFakeModelRepo() *fakeModelRepo {
	return &fakeModelRepo{
		models:        map[string]*Model{},
		templateCount: map[string]int64{},
	}
}

func (f *fakeModelRepo) List(ctx context.Context) ([]*Model, error) {
	var out []*Model
	for _, m := range f.models {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeModelRepo) GetByID(ctx context.Context, id string) (*Model, error) {
	m, ok := f.models[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrModelNotFound, "model not found")
	}
	return m, nil
}

func (f *fakeModelRepo) GetByOpenAIID(ctx context.Context, openaiID string) (*Model, error) {
	for _, m := range f.models {
		if m.OpenAIID == openaiID {
			return m, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrModelNotFound, "model not found")
}

func (f *fakeModelRepo) Upsert(ctx context.Context, model *Model) error {
	f.models[model.ID] = model
	return nil
}

func (f *fakeModelRepo) Delete(ctx context.Context, id string) error {
	delete(f.models, id)
	return nil
}

func (f *fakeModelRepo) CountTemplates(ctx context.Context, modelID string) (int64, error) {
	return f.templateCount[modelID], nil
}

type fakeCatalog struct {
	models   []*CatalogModel
	retrieve map[string]*CatalogModel
	listErr  error
}

func (f *fakeCatalog) ListModels(ctx context.Context) ([]*CatalogModel, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.models, nil
}

func (f *fakeCatalog) RetrieveModel(ctx context.Context, openaiID string) (*CatalogModel, error) {
	if cm, ok := f.retrieve[openaiID]; ok {
		return cm, nil
	}
	return nil, apperrors.Newf(apperrors.ErrModelNotFound, "model %s", openaiID)
}

type fakeSyncState struct {
	lastSynced time.Time
	locked     bool
	denyLock   bool
}

func (f *fakeSyncState) LastSynced(ctx context.Context) (time.Time, error) {
	return f.lastSynced, nil
}

func (f *fakeSyncState) SetLastSynced(ctx context.Context, t time.Time) error {
	f.lastSynced = t
	return nil
}

func (f *fakeSyncState) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	if f.denyLock || f.locked {
		return false, nil
	}
	f.locked = true
	return true, nil
}

func (f *fakeSyncState) Unlock(ctx context.Context) error {
	f.locked = false
	return nil
}

func newModelFixture(t *testing.T, catalog *fakeCatalog) (*ModelUseCase, *fakeModelRepo, *fakeSyncState) {
	repo := newFakeModelRepo()
	state := &fakeSyncState{}
	uc := NewModelUseCase(repo, catalog, state, testLogger(t))
	return uc, repo, state
}

func TestImportModel(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		retrieve: map[string]*CatalogModel{
			"gpt-4o-mini": {ID: "gpt-4o-mini", OwnedBy: "openai"},
		},
	}

	t.Run("imports a catalog model", func(t *testing.T) {
		uc, repo, _ := newModelFixture(t, catalog)

		model, err := uc.ImportModel(ctx, "gpt-4o-mini")
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", model.OpenAIID)
		assert.Len(t, repo.models, 1)
	})

	t.Run("import is idempotent per external id", func(t *testing.T) {
		uc, repo, _ := newModelFixture(t, catalog)

		first, err := uc.ImportModel(ctx, "gpt-4o-mini")
		require.NoError(t, err)
		second, err := uc.ImportModel(ctx, "gpt-4o-mini")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, repo.models, 1)
	})

	t.Run("unknown catalog model fails", func(t *testing.T) {
		uc, _, _ := newModelFixture(t, catalog)

		_, err := uc.ImportModel(ctx, "gpt-99")
		assert.True(t, apperrors.Is(err, apperrors.ErrModelNotFound))
	})
}

func TestRemoveModel(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		retrieve: map[string]*CatalogModel{
			"gpt-4o-mini": {ID: "gpt-4o-mini"},
		},
	}

	t.Run("removes an unreferenced model", func(t *testing.T) {
		uc, repo, _ := newModelFixture(t, catalog)
		model, err := uc.ImportModel(ctx, "gpt-4o-mini")
		require.NoError(t, err)

		require.NoError(t, uc.RemoveModel(ctx, model.ID))
		assert.Empty(t, repo.models)
	})

	t.Run("refuses removal while templates reference it", func(t *testing.T) {
		uc, repo, _ := newModelFixture(t, catalog)
		model, err := uc.ImportModel(ctx, "gpt-4o-mini")
		require.NoError(t, err)
		repo.templateCount[model.ID] = 3

		err = uc.RemoveModel(ctx, model.ID)
		assert.True(t, apperrors.Is(err, apperrors.ErrModelInUse))
		assert.Len(t, repo.models, 1)
	})

	t.Run("unknown model fails", func(t *testing.T) {
		uc, _, _ := newModelFixture(t, catalog)
		err := uc.RemoveModel(ctx, "missing")
		assert.True(t, apperrors.Is(err, apperrors.ErrModelNotFound))
	})
}

func TestSyncModels(t *testing.T) {
	ctx := context.Background()

	t.Run("mirrors the catalog and records the sync time", func(t *testing.T) {
		catalog := &fakeCatalog{
			models: []*CatalogModel{
				{ID: "gpt-4o-mini"},
				{ID: "gpt-4o"},
			},
		}
		uc, repo, state := newModelFixture(t, catalog)

		count, err := uc.SyncModels(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Len(t, repo.models, 2)
		assert.False(t, state.lastSynced.IsZero())
		assert.False(t, state.locked)
	})

	t.Run("resync refreshes rather than duplicates", func(t *testing.T) {
		catalog := &fakeCatalog{models: []*CatalogModel{{ID: "gpt-4o-mini"}}}
		uc, repo, _ := newModelFixture(t, catalog)

		_, err := uc.SyncModels(ctx)
		require.NoError(t, err)
		_, err = uc.SyncModels(ctx)
		require.NoError(t, err)

		assert.Len(t, repo.models, 1)
	})

	t.Run("skips when another sync holds the lock", func(t *testing.T) {
		catalog := &fakeCatalog{models: []*CatalogModel{{ID: "gpt-4o-mini"}}}
		uc, repo, state := newModelFixture(t, catalog)
		state.denyLock = true

		count, err := uc.SyncModels(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, repo.models)
	})
}
