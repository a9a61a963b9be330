package service

import (
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"
	"github.com/ashwood-health/scr-backend/internal/pkg/response"
	"github.com/ashwood-health/scr-backend/internal/template/biz"

	authmw "github.com/ashwood-health/scr-backend/internal/auth/middleware"
	userbiz "github.com/ashwood-health/scr-backend/internal/user/biz"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TemplateService provides HTTP handlers for assistant templates
type TemplateService struct {
	templateUseCase  *biz.TemplateUseCase
	selectionUseCase *biz.SelectionUseCase
	userUseCase      *userbiz.UserUseCase
	logger           *logger.Logger
}

// NewTemplateService creates a new template service
func NewTemplateService(
	templateUseCase *biz.TemplateUseCase,
	selectionUseCase *biz.SelectionUseCase,
	userUseCase *userbiz.UserUseCase,
	log *logger.Logger,
) *TemplateService {
	return &TemplateService{
		templateUseCase:  templateUseCase,
		selectionUseCase: selectionUseCase,
		userUseCase:      userUseCase,
		logger:           log,
	}
}

// ownerID maps the authenticated external user to the local owner id
func (s *TemplateService) ownerID(c *gin.Context) (string, bool) {
	externalID, ok := authmw.GetExternalUserID(c)
	if !ok {
		response.Unauthorized(c, "missing authentication")
		return "", false
	}

	id, err := s.userUseCase.ResolveInternalID(c.Request.Context(), externalID)
	if err != nil {
		response.AppError(c, err)
		return "", false
	}
	return id, true
}

// CreateTemplate creates a template and its remote assistant resource
// @Router /templates [post]
func (s *TemplateService) CreateTemplate(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	var req biz.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	tpl, err := s.templateUseCase.CreateTemplate(c.Request.Context(), ownerID, &req)
	if err != nil {
		s.logger.Error("failed to create template",
			zap.String("owner_id", ownerID), zap.Error(err))
		response.AppError(c, err)
		return
	}

	response.Created(c, tpl)
}

// ListTemplates returns all templates
// @Router /templates [get]
func (s *TemplateService) ListTemplates(c *gin.Context) {
	if _, ok := s.ownerID(c); !ok {
		return
	}

	templates, err := s.templateUseCase.ListTemplates(c.Request.Context())
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"templates": templates})
}

// GetTemplate returns one owned template
// @Router /templates/:id [get]
func (s *TemplateService) GetTemplate(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	tpl, err := s.templateUseCase.GetTemplate(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, tpl)
}

// UpdateTemplate applies a partial update to an owned template
// @Router /templates/:id [put]
func (s *TemplateService) UpdateTemplate(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	var req biz.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	tpl, err := s.templateUseCase.UpdateTemplate(c.Request.Context(), c.Param("id"), ownerID, &req)
	if err != nil {
		s.logger.Error("failed to update template",
			zap.String("template_id", c.Param("id")),
			zap.String("owner_id", ownerID),
			zap.Error(err))
		response.AppError(c, err)
		return
	}

	response.Success(c, tpl)
}

// DeleteTemplate removes an owned template and its selections
// @Router /templates/:id [delete]
func (s *TemplateService) DeleteTemplate(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	if err := s.templateUseCase.DeleteTemplate(c.Request.Context(), c.Param("id"), ownerID); err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
