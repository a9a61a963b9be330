package service

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/ashwood-health/scr-backend/internal/docai"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"
	"github.com/ashwood-health/scr-backend/internal/pkg/response"

	authmw "github.com/ashwood-health/scr-backend/internal/auth/middleware"
	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	userbiz "github.com/ashwood-health/scr-backend/internal/user/biz"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DocAIService provides HTTP handlers for document upload and the
// extraction pipeline
type DocAIService struct {
	files       *docai.FileStore
	runner      *docai.Runner
	userUseCase *userbiz.UserUseCase
	logger      *logger.Logger
}

// NewDocAIService creates a new document AI service
func NewDocAIService(files *docai.FileStore, runner *docai.Runner, userUseCase *userbiz.UserUseCase, log *logger.Logger) *DocAIService {
	return &DocAIService{
		files:       files,
		runner:      runner,
		userUseCase: userUseCase,
		logger:      log,
	}
}

func (s *DocAIService) ownerID(c *gin.Context) (string, bool) {
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

// UploadFile accepts a multipart PDF upload
// @Router /files [post]
func (s *DocAIService) UploadFile(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "no file provided")
		return
	}
	if header.Size > docai.MaxUploadSize {
		response.AppError(c, apperrors.New(apperrors.ErrFileInvalid, "file exceeds the upload size limit"))
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		response.AppError(c, apperrors.New(apperrors.ErrFileInvalid, "only PDF files are allowed"))
		return
	}

	f, err := header.Open()
	if err != nil {
		response.InternalError(c, "failed to read upload")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, docai.MaxUploadSize+1))
	if err != nil {
		response.InternalError(c, "failed to read upload")
		return
	}

	result, err := s.files.UploadPDF(c.Request.Context(), ownerID, header.Filename, data)
	if err != nil {
		s.logger.Error("file upload failed",
			zap.String("owner_id", ownerID),
			zap.String("filename", header.Filename),
			zap.Error(err))
		response.AppError(c, err)
		return
	}

	response.Created(c, result)
}

type extractRequest struct {
	FileID     string `json:"fileId" binding:"required"`
	TemplateID string `json:"templateId"`
}

// Extract runs the extraction assistant over an uploaded document
// @Router /extract [post]
func (s *DocAIService) Extract(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "fileId is required")
		return
	}

	data, err := s.runner.Extract(c.Request.Context(), ownerID, req.FileID, req.TemplateID)
	if err != nil {
		s.logger.Error("extraction failed",
			zap.String("owner_id", ownerID),
			zap.String("file_id", req.FileID),
			zap.Error(err))
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"data": json.RawMessage(data)})
}

type generateCSVRequest struct {
	Data       json.RawMessage `json:"data" binding:"required"`
	TemplateID string          `json:"templateId"`
}

// GenerateCSV converts extracted patient data to CSV
// @Router /generate-csv [post]
func (s *DocAIService) GenerateCSV(c *gin.Context) {
	ownerID, ok := s.ownerID(c)
	if !ok {
		return
	}

	var req generateCSVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "data is required")
		return
	}

	csv, err := s.runner.GenerateCSV(c.Request.Context(), ownerID, req.Data, req.TemplateID)
	if err != nil {
		s.logger.Error("csv generation failed",
			zap.String("owner_id", ownerID),
			zap.Error(err))
		response.AppError(c, err)
		return
	}

	response.Success(c, gin.H{"csv": csv})
}
