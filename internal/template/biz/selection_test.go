package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/ashwood-health/scr-backend/internal/template/types"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSelectionRepo keeps at most one explicit selection per (owner, type)
type fakeSelectionRepo struct {
	selections map[string]*types.Selection
	templates  *fakeTemplateRepo
}

func newFakeSelectionRepo(templates *fakeTemplateRepo) *fakeSelectionRepo {
	f := &fakeSelectionRepo{
		selections: map[string]*types.Selection{},
		templates:  templates,
	}
	templates.selRepo = f
	return f
}

// dropByTemplate removes selection rows referencing a deleted template,
// mirroring the store's delete cascade
func (f *fakeSelectionRepo) dropByTemplate(templateID string) {
	for key, sel := range f.selections {
		if sel.TemplateID == templateID {
			delete(f.selections, key)
		}
	}
}

func (f *fakeSelectionRepo) key(ownerID, typeID string) string {
	return fmt.Sprintf("%s|%s", ownerID, typeID)
}

func (f *fakeSelectionRepo) Upsert(ctx context.Context, ownerID, assistantTypeID, templateID string) error {
	f.selections[f.key(ownerID, assistantTypeID)] = &types.Selection{
		OwnerID:         ownerID,
		AssistantTypeID: assistantTypeID,
		AssistantType:   f.templates.typeNames[assistantTypeID],
		TemplateID:      templateID,
	}
	return nil
}

func (f *fakeSelectionRepo) ListByOwner(ctx context.Context, ownerID string) ([]*types.Selection, error) {
	var out []*types.Selection
	for _, sel := range f.selections {
		if sel.OwnerID != ownerID {
			continue
		}
		cp := *sel
		if tpl, err := f.templates.GetByID(ctx, sel.TemplateID, ""); err == nil {
			cp.Template = tpl
		}
		out = append(out, &cp)
	}
	return out, nil
}

type selectionFixture struct {
	templates  *TemplateUseCase
	selections *SelectionUseCase
	repo       *fakeTemplateRepo
	selRepo    *fakeSelectionRepo
}

func newSelectionFixture(t *testing.T) *selectionFixture {
	repo := newFakeTemplateRepo()
	selRepo := newFakeSelectionRepo(repo)
	typeRepo := newFakeTypeRepo()
	log := testLogger(t)

	return &selectionFixture{
		templates:  NewTemplateUseCase(repo, typeRepo, fakeModelRepo{}, newFakeProvider(), log),
		selections: NewSelectionUseCase(repo, selRepo, typeRepo, log),
		repo:       repo,
		selRepo:    selRepo,
	}
}

func (fx *selectionFixture) createTemplate(t *testing.T, ownerID, typeName string, isDefault bool) *types.Template {
	t.Helper()
	req := createReq()
	req.AssistantType = typeName
	req.IsDefault = isDefault
	tpl, err := fx.templates.CreateTemplate(context.Background(), ownerID, req)
	require.NoError(t, err)
	return tpl
}

func TestSetDefaultTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the template default and demotes the previous one", func(t *testing.T) {
		fx := newSelectionFixture(t)
		first := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, true)
		second := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, false)

		result, err := fx.selections.SetDefaultTemplate(ctx, "owner-1", second.ID, types.AssistantTypeExtraction)
		require.NoError(t, err)

		assert.True(t, result.IsDefault)
		assert.Equal(t, 1, fx.repo.countDefaults("owner-1", extractionTypeID))
		assert.False(t, fx.repo.templates[first.ID].IsDefault)
	})

	t.Run("defaults are independent per assistant type", func(t *testing.T) {
		fx := newSelectionFixture(t)
		ext := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, false)
		csv := fx.createTemplate(t, "owner-1", types.AssistantTypeCSV, false)

		_, err := fx.selections.SetDefaultTemplate(ctx, "owner-1", ext.ID, types.AssistantTypeExtraction)
		require.NoError(t, err)
		_, err = fx.selections.SetDefaultTemplate(ctx, "owner-1", csv.ID, types.AssistantTypeCSV)
		require.NoError(t, err)

		assert.True(t, fx.repo.templates[ext.ID].IsDefault)
		assert.True(t, fx.repo.templates[csv.ID].IsDefault)
	})

	t.Run("defaults are independent per owner", func(t *testing.T) {
		fx := newSelectionFixture(t)
		mine := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, true)
		theirs := fx.createTemplate(t, "owner-2", types.AssistantTypeExtraction, false)

		_, err := fx.selections.SetDefaultTemplate(ctx, "owner-2", theirs.ID, types.AssistantTypeExtraction)
		require.NoError(t, err)

		assert.True(t, fx.repo.templates[mine.ID].IsDefault)
		assert.True(t, fx.repo.templates[theirs.ID].IsDefault)
	})

	t.Run("rejects an unknown type name", func(t *testing.T) {
		fx := newSelectionFixture(t)
		tpl := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, false)

		_, err := fx.selections.SetDefaultTemplate(ctx, "owner-1", tpl.ID, "summarization")
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidAssistantType))
	})

	t.Run("rejects a template of a different type", func(t *testing.T) {
		fx := newSelectionFixture(t)
		csv := fx.createTemplate(t, "owner-1", types.AssistantTypeCSV, false)

		_, err := fx.selections.SetDefaultTemplate(ctx, "owner-1", csv.ID, types.AssistantTypeExtraction)
		assert.True(t, apperrors.Is(err, apperrors.ErrTemplateNotFound))
	})

	t.Run("rejects another owner's template", func(t *testing.T) {
		fx := newSelectionFixture(t)
		theirs := fx.createTemplate(t, "owner-2", types.AssistantTypeExtraction, false)

		_, err := fx.selections.SetDefaultTemplate(ctx, "owner-1", theirs.ID, types.AssistantTypeExtraction)
		assert.True(t, apperrors.Is(err, apperrors.ErrTemplateNotFound))
	})
}

func TestRemoveDefaultTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the default and is idempotent", func(t *testing.T) {
		fx := newSelectionFixture(t)
		tpl := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, true)

		require.NoError(t, fx.selections.RemoveDefaultTemplate(ctx, "owner-1", types.AssistantTypeExtraction))
		assert.False(t, fx.repo.templates[tpl.ID].IsDefault)

		// Removing an absent default is a no-op
		require.NoError(t, fx.selections.RemoveDefaultTemplate(ctx, "owner-1", types.AssistantTypeExtraction))
	})

	t.Run("rejects an unknown type name", func(t *testing.T) {
		fx := newSelectionFixture(t)
		err := fx.selections.RemoveDefaultTemplate(ctx, "owner-1", "summarization")
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidAssistantType))
	})
}

func TestGetDefaultTemplates(t *testing.T) {
	ctx := context.Background()

	fx := newSelectionFixture(t)
	ext := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, true)
	fx.createTemplate(t, "owner-1", types.AssistantTypeCSV, false)

	defaults, err := fx.selections.GetDefaultTemplates(ctx, "owner-1")
	require.NoError(t, err)

	require.Contains(t, defaults, types.AssistantTypeExtraction)
	assert.Equal(t, ext.ID, defaults[types.AssistantTypeExtraction].ID)
	assert.NotContains(t, defaults, types.AssistantTypeCSV)
}

func TestGetTemplateSelections(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit selection wins over the default", func(t *testing.T) {
		fx := newSelectionFixture(t)
		def := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, true)
		picked := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, false)

		require.NoError(t, fx.selections.UpdateTemplateSelection(ctx, "owner-1", extractionTypeID, picked.ID))

		view, err := fx.selections.GetTemplateSelections(ctx, "owner-1")
		require.NoError(t, err)

		require.NotNil(t, view.Extraction)
		assert.Equal(t, picked.ID, view.Extraction.ID)
		assert.NotEqual(t, def.ID, view.Extraction.ID)
		assert.Nil(t, view.CSV)

		// The default flag itself is untouched by the selection
		assert.True(t, fx.repo.templates[def.ID].IsDefault)
	})

	t.Run("falls back to the default when nothing is selected", func(t *testing.T) {
		fx := newSelectionFixture(t)
		def := fx.createTemplate(t, "owner-1", types.AssistantTypeCSV, true)

		view, err := fx.selections.GetTemplateSelections(ctx, "owner-1")
		require.NoError(t, err)

		assert.Nil(t, view.Extraction)
		require.NotNil(t, view.CSV)
		assert.Equal(t, def.ID, view.CSV.ID)
	})

	t.Run("resolves to nil when neither exists", func(t *testing.T) {
		fx := newSelectionFixture(t)

		view, err := fx.selections.GetTemplateSelections(ctx, "owner-1")
		require.NoError(t, err)
		assert.Nil(t, view.Extraction)
		assert.Nil(t, view.CSV)
	})
}

func TestUpdateTemplateSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the previous selection for the type", func(t *testing.T) {
		fx := newSelectionFixture(t)
		first := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, false)
		second := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, false)

		require.NoError(t, fx.selections.UpdateTemplateSelection(ctx, "owner-1", extractionTypeID, first.ID))
		require.NoError(t, fx.selections.UpdateTemplateSelection(ctx, "owner-1", extractionTypeID, second.ID))

		view, err := fx.selections.GetTemplateSelections(ctx, "owner-1")
		require.NoError(t, err)
		require.NotNil(t, view.Extraction)
		assert.Equal(t, second.ID, view.Extraction.ID)
	})

	t.Run("rejects a template of a different type", func(t *testing.T) {
		fx := newSelectionFixture(t)
		csv := fx.createTemplate(t, "owner-1", types.AssistantTypeCSV, false)

		err := fx.selections.UpdateTemplateSelection(ctx, "owner-1", extractionTypeID, csv.ID)
		assert.True(t, apperrors.Is(err, apperrors.ErrTemplateNotFound))
	})

	t.Run("rejects another owner's template", func(t *testing.T) {
		fx := newSelectionFixture(t)
		theirs := fx.createTemplate(t, "owner-2", types.AssistantTypeExtraction, false)

		err := fx.selections.UpdateTemplateSelection(ctx, "owner-1", extractionTypeID, theirs.ID)
		assert.True(t, apperrors.Is(err, apperrors.ErrTemplateNotFound))
	})
}

func TestDeleteTemplateCleansSelections(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting a pinned template leaves no dangling selection", func(t *testing.T) {
		fx := newSelectionFixture(t)
		def := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, true)
		pinned := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, false)

		require.NoError(t, fx.selections.UpdateTemplateSelection(ctx, "owner-1", extractionTypeID, pinned.ID))
		require.NoError(t, fx.templates.DeleteTemplate(ctx, pinned.ID, "owner-1"))

		for _, sel := range fx.selRepo.selections {
			assert.NotEqual(t, pinned.ID, sel.TemplateID)
		}

		// Resolution falls back to the surviving default
		view, err := fx.selections.GetTemplateSelections(ctx, "owner-1")
		require.NoError(t, err)
		require.NotNil(t, view.Extraction)
		assert.Equal(t, def.ID, view.Extraction.ID)
	})

	t.Run("deleting the last template resolves to nil", func(t *testing.T) {
		fx := newSelectionFixture(t)
		only := fx.createTemplate(t, "owner-1", types.AssistantTypeExtraction, false)

		require.NoError(t, fx.selections.UpdateTemplateSelection(ctx, "owner-1", extractionTypeID, only.ID))
		require.NoError(t, fx.templates.DeleteTemplate(ctx, only.ID, "owner-1"))

		view, err := fx.selections.GetTemplateSelections(ctx, "owner-1")
		require.NoError(t, err)
		assert.Nil(t, view.Extraction)
		assert.Empty(t, fx.selRepo.selections)
	})
}
