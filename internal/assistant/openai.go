// Package assistant adapts templates to remote assistant resources on the
// OpenAI Assistants API. The template store never sees provider-specific
// error shapes: every failure surfaces as an assistant provision error with
// the provider message preserved.
package assistant

import (
	"context"

	"github.com/ashwood-health/scr-backend/internal/conf"
	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"
	"github.com/ashwood-health/scr-backend/internal/template/types"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider implements the template store's AssistantProvider contract
type OpenAIProvider struct {
	client *openai.Client
	logger *logger.Logger
}

// NewClient creates an OpenAI client from configuration
func NewClient(cfg *conf.OpenAIConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// NewOpenAIProvider creates a new OpenAI assistant provider
func NewOpenAIProvider(client *openai.Client, log *logger.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		client: client,
		logger: log,
	}
}

// Create provisions a remote assistant and returns its handle
func (p *OpenAIProvider) Create(ctx context.Context, spec *types.AssistantSpec) (string, error) {
	req, err := p.toRequest(spec)
	if err != nil {
		return "", err
	}

	created, err := p.client.CreateAssistant(ctx, *req)
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrAssistantProvision, "failed to create assistant")
	}

	p.logger.Info("remote assistant created",
		zap.String("assistant_id", created.ID),
		zap.String("model", spec.Model))

	return created.ID, nil
}

// Update pushes the merged parameter set to an existing remote assistant
func (p *OpenAIProvider) Update(ctx context.Context, handle string, spec *types.AssistantSpec) error {
	req, err := p.toRequest(spec)
	if err != nil {
		return err
	}

	if _, err := p.client.ModifyAssistant(ctx, handle, *req); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrAssistantProvision,
			"failed to update assistant %s", handle)
	}

	p.logger.Info("remote assistant updated", zap.String("assistant_id", handle))
	return nil
}

// Delete removes a remote assistant
func (p *OpenAIProvider) Delete(ctx context.Context, handle string) error {
	if _, err := p.client.DeleteAssistant(ctx, handle); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrAssistantProvision,
			"failed to delete assistant %s", handle)
	}

	p.logger.Info("remote assistant deleted", zap.String("assistant_id", handle))
	return nil
}

func (p *OpenAIProvider) toRequest(spec *types.AssistantSpec) (*openai.AssistantRequest, error) {
	tools, err := ConvertTools(spec.Tools)
	if err != nil {
		return nil, err
	}

	name := spec.Name
	instructions := spec.Instructions
	temperature := spec.Temperature

	return &openai.AssistantRequest{
		Model:        spec.Model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        tools,
		Temperature:  &temperature,
	}, nil
}
