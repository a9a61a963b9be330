package service

import (
	"github.com/ashwood-health/scr-backend/internal/model/biz"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"
	"github.com/ashwood-health/scr-backend/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ModelService provides HTTP handlers for the model registry
type ModelService struct {
	modelUseCase *biz.ModelUseCase
	logger       *logger.Logger
}

// NewModelService creates a new model service
func NewModelService(modelUseCase *biz.ModelUseCase, log *logger.Logger) *ModelService {
	return &ModelService{
		modelUseCase: modelUseCase,
		logger:       log,
	}
}

// ListModels returns registered models and the last catalog sync time
// @Router /models [get]
func (s *ModelService) ListModels(c *gin.Context) {
	models, lastSynced, err := s.modelUseCase.ListModels(c.Request.Context())
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{
		"models":     models,
		"lastSynced": lastSynced,
	})
}

type importModelRequest struct {
	OpenAIID string `json:"openaiId" binding:"required"`
}

// ImportModel registers a single model from the provider catalog
// @Router /models/import [post]
func (s *ModelService) ImportModel(c *gin.Context) {
	var req importModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "openaiId is required")
		return
	}

	model, err := s.modelUseCase.ImportModel(c.Request.Context(), req.OpenAIID)
	if err != nil {
		s.logger.Error("failed to import model",
			zap.String("openai_id", req.OpenAIID), zap.Error(err))
		response.AppError(c, err)
		return
	}

	response.Created(c, model)
}

// SyncModels refreshes the registry from the provider catalog
// @Router /models/sync [post]
func (s *ModelService) SyncModels(c *gin.Context) {
	count, err := s.modelUseCase.SyncModels(c.Request.Context())
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"synced": count})
}

// RemoveModel deletes a model that no template references
// @Router /models/:id [delete]
func (s *ModelService) RemoveModel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "model id is required")
		return
	}

	if err := s.modelUseCase.RemoveModel(c.Request.Context(), id); err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
