package docai

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ashwood-health/scr-backend/internal/pkg/logger"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// MaxUploadSize caps uploaded documents at 32 MiB
const MaxUploadSize = 32 << 20

// UploadResult describes an archived and provider-registered document
type UploadResult struct {
	FileID     string    `json:"fileId"`
	Filename   string    `json:"filename"`
	Pages      int       `json:"pages"`
	ArchiveKey string    `json:"archiveKey"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// FileStore validates patient record PDFs, archives them and registers
// them with the assistant provider for file search
type FileStore struct {
	client *openai.Client
	minio  *minio.Client
	bucket string
	logger *logger.Logger
}

// NewFileStore creates a new file store
func NewFileStore(client *openai.Client, minioClient *minio.Client, bucket string, log *logger.Logger) *FileStore {
	return &FileStore{
		client: client,
		minio:  minioClient,
		bucket: bucket,
		logger: log,
	}
}

// UploadPDF validates the document, archives the original bytes and
// uploads them to the provider with the assistants purpose
func (s *FileStore) UploadPDF(ctx context.Context, ownerID, filename string, data []byte) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.ErrFileInvalid, "empty file")
	}
	if len(data) > MaxUploadSize {
		return nil, apperrors.New(apperrors.ErrFileInvalid, "file exceeds the upload size limit")
	}

	pages, err := validatePDF(data)
	if err != nil {
		return nil, err
	}

	archiveKey := fmt.Sprintf("scr/%s/%s/%s", ownerID, uuid.New().String(), filename)
	_, err = s.minio.PutObject(ctx, s.bucket, archiveKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive document: %w", err)
	}

	file, err := s.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    filename,
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrAssistantProvision, "failed to upload file to provider")
	}

	s.logger.Info("document uploaded",
		zap.String("owner_id", ownerID),
		zap.String("file_id", file.ID),
		zap.String("archive_key", archiveKey),
		zap.Int("pages", pages))

	return &UploadResult{
		FileID:     file.ID,
		Filename:   filename,
		Pages:      pages,
		ArchiveKey: archiveKey,
		UploadedAt: time.Now(),
	}, nil
}

// validatePDF opens the document to confirm it is a readable PDF
func validatePDF(data []byte) (int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrFileInvalid, "only PDF files are allowed")
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return 0, apperrors.New(apperrors.ErrFileInvalid, "document has no pages")
	}
	return pages, nil
}
