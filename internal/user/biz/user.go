package biz

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"

	"go.uber.org/zap"
)

// User is the local mirror of an identity-provider user
type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UserRepo defines the repository interface for user data operations
type UserRepo interface {
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	Upsert(ctx context.Context, user *User) error
	DeleteByExternalID(ctx context.Context, externalID string) error
	List(ctx context.Context, offset, limit int) ([]*User, error)
}

// TemplateCleaner removes a user's templates (including their remote
// assistant resources) when the user is deleted upstream
type TemplateCleaner interface {
	DeleteTemplatesByOwner(ctx context.Context, ownerID string) error
}

// Identity-provider lifecycle event types
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// IdentityEvent is an identity-provider lifecycle event mirrored locally
type IdentityEvent struct {
	Type       string `json:"type"`
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

// UserUseCase mirrors identity-provider users into local storage
type UserUseCase struct {
	repo      UserRepo
	templates TemplateCleaner
	logger    *logger.Logger
}

// NewUserUseCase creates a new user use case
func NewUserUseCase(repo UserRepo, templates TemplateCleaner, log *logger.Logger) *UserUseCase {
	return &UserUseCase{
		repo:      repo,
		templates: templates,
		logger:    log,
	}
}

// ResolveInternalID maps an identity-provider id to the local user id
func (uc *UserUseCase) ResolveInternalID(ctx context.Context, externalID string) (string, error) {
	user, err := uc.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// HandleIdentityEvent applies one identity-provider lifecycle event.
// Deleting a user cascades its templates and selections first.
func (uc *UserUseCase) HandleIdentityEvent(ctx context.Context, evt *IdentityEvent) error {
	if evt.ExternalID == "" {
		return apperrors.New(apperrors.ErrInvalidParams, "event is missing the user id")
	}

	switch evt.Type {
	case EventUserCreated, EventUserUpdated:
		user := &User{
			ExternalID: evt.ExternalID,
			Email:      evt.Email,
			Name:       evt.Name,
			UpdatedAt:  time.Now(),
		}
		if err := uc.repo.Upsert(ctx, user); err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}
		uc.logger.Info("user mirrored from identity provider",
			zap.String("external_id", evt.ExternalID),
			zap.String("event", evt.Type))
		return nil

	case EventUserDeleted:
		user, err := uc.repo.GetByExternalID(ctx, evt.ExternalID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrUserNotFound) {
				// Already gone; deletion events are retried upstream
				return nil
			}
			return err
		}

		if err := uc.templates.DeleteTemplatesByOwner(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to clean up user templates: %w", err)
		}

		if err := uc.repo.DeleteByExternalID(ctx, evt.ExternalID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		uc.logger.Info("user removed after identity-provider deletion",
			zap.String("external_id", evt.ExternalID))
		return nil

	default:
		return apperrors.Newf(apperrors.ErrInvalidParams, "unknown event type %s", evt.Type)
	}
}

// ListUsers lists local users with pagination
func (uc *UserUseCase) ListUsers(ctx context.Context, page, pageSize int) ([]*User, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return uc.repo.List(ctx, (page-1)*pageSize, pageSize)
}
