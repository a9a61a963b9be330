package service

import (
	"strconv"

	"github.com/ashwood-health/scr-backend/internal/pkg/logger"
	"github.com/ashwood-health/scr-backend/internal/pkg/response"
	"github.com/ashwood-health/scr-backend/internal/user/biz"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserService provides HTTP handlers for user mirroring
type UserService struct {
	userUseCase *biz.UserUseCase
	logger      *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userUseCase *biz.UserUseCase, log *logger.Logger) *UserService {
	return &UserService{
		userUseCase: userUseCase,
		logger:      log,
	}
}

type identityWebhookRequest struct {
	Type string `json:"type" binding:"required"`
	Data struct {
		ID    string `json:"id" binding:"required"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"data" binding:"required"`
}

// HandleIdentityWebhook applies an identity-provider lifecycle event
// @Router /webhooks/identity [post]
func (s *UserService) HandleIdentityWebhook(c *gin.Context) {
	var req identityWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid webhook payload")
		return
	}

	evt := &biz.IdentityEvent{
		Type:       req.Type,
		ExternalID: req.Data.ID,
		Email:      req.Data.Email,
		Name:       req.Data.Name,
	}
	if err := s.userUseCase.HandleIdentityEvent(c.Request.Context(), evt); err != nil {
		s.logger.Error("failed to handle identity event",
			zap.String("event", req.Type), zap.Error(err))
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"received": true})
}

// ListUsers lists locally mirrored users
// @Router /users [get]
func (s *UserService) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	users, err := s.userUseCase.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"users": users})
}
