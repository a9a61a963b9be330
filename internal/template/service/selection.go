package service

import (
	"github.com/ashwood-health/scr-backend/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetDefaultTemplate marks a template as the owner's default for a type
// @Router /users/templates/defaults/:type [put]
func (s *TemplateService) SetDefaultTemplate(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	var req struct {
		TemplateID string `json:"templateId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "templateId is required")
		return
	}

	tpl, err := s.selectionUseCase.SetDefaultTemplate(c.Request.Context(), ownerID, req.TemplateID, c.Param("type"))
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, tpl)
}

// RemoveDefaultTemplate clears the owner's default for a type. Removing a
// default that is not set is a no-op.
// @Router /users/templates/defaults/:type [delete]
func (s *TemplateService) RemoveDefaultTemplate(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	if err := s.selectionUseCase.RemoveDefaultTemplate(c.Request.Context(), ownerID, c.Param("type")); err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"removed": true})
}

// GetDefaultTemplates returns the owner's default template per type
// @Router /users/templates/defaults [get]
func (s *TemplateService) GetDefaultTemplates(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	defaults, err := s.selectionUseCase.GetDefaultTemplates(c.Request.Context(), ownerID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, defaults)
}

// GetTemplateSelections resolves the owner's effective template per type
// @Router /users/templates/selections [get]
func (s *TemplateService) GetTemplateSelections(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	view, err := s.selectionUseCase.GetTemplateSelections(c.Request.Context(), ownerID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, view)
}

// UpdateTemplateSelection pins an explicit template selection for a type
// @Router /users/templates/selections [put]
func (s *TemplateService) UpdateTemplateSelection(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	var req struct {
		AssistantTypeID string `json:"assistantTypeId" binding:"required"`
		TemplateID      string `json:"templateId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "assistantTypeId and templateId are required")
		return
	}

	if err := s.selectionUseCase.UpdateTemplateSelection(c.Request.Context(), ownerID, req.AssistantTypeID, req.TemplateID); err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"updated": true})
}
