package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrTemplateNotFound, "template abc")
	assert.Equal(t, ErrTemplateNotFound, err.Code)
	assert.Equal(t, "Template not found", err.Message)
	assert.Equal(t, "template abc", err.Details)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrAssistantProvision)

	assert.Equal(t, ErrAssistantProvision, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrInternalServer))
}

func TestWrapPreservesExistingCode(t *testing.T) {
	inner := New(ErrModelNotFound, "gpt-4o-mini")
	wrapped := Wrap(fmt.Errorf("load template: %w", inner), ErrInternalServer)

	assert.Equal(t, ErrModelNotFound, wrapped.Code)
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrInvalidAssistantType, "banana"))

	assert.True(t, Is(err, ErrInvalidAssistantType))
	assert.False(t, Is(err, ErrTemplateNotFound))
	assert.False(t, Is(stderrors.New("plain"), ErrInvalidAssistantType))
}

func TestExtractCode(t *testing.T) {
	assert.Equal(t, ErrDefaultConflict, ExtractCode(New(ErrDefaultConflict)))
	assert.Equal(t, ErrInternalServer, ExtractCode(stderrors.New("plain")))
}

func TestGetCodeUnknown(t *testing.T) {
	c := GetCode(99999)
	assert.Equal(t, http.StatusInternalServerError, c.Status)
	assert.Contains(t, c.Message, "99999")
}
