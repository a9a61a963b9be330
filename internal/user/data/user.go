package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashwood-health/scr-backend/internal/user/biz"
	"github.com/ashwood-health/scr-backend/internal/user/models"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepo implements biz.UserRepo backed by PostgreSQL
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByExternalID retrieves a user by its identity-provider id
func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*biz.User, error) {
	var po models.User
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toDomain(&po), nil
}

// Upsert inserts the user or refreshes email and name on conflict
func (r *UserRepo) Upsert(ctx context.Context, user *biz.User) error {
	po := &models.User{
		ExternalID: user.ExternalID,
		Email:      user.Email,
		Name:       user.Name,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"email":      user.Email,
				"name":       user.Name,
				"updated_at": time.Now(),
			}),
		}).
		Create(po).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	// On conflict the generated id is discarded; read back the stored row
	var stored models.User
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", user.ExternalID).
		First(&stored).Error; err != nil {
		return fmt.Errorf("failed to read back user: %w", err)
	}
	user.ID = stored.ID
	return nil
}

// DeleteByExternalID removes a user row
func (r *UserRepo) DeleteByExternalID(ctx context.Context, externalID string) error {
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		Delete(&models.User{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// List returns users ordered by creation time
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]*biz.User, error) {
	var pos []*models.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*biz.User, 0, len(pos))
	for _, po := range pos {
		users = append(users, toDomain(po))
	}
	return users, nil
}

func toDomain(po *models.User) *biz.User {
	return &biz.User{
		ID:         po.ID,
		ExternalID: po.ExternalID,
		Email:      po.Email,
		Name:       po.Name,
		CreatedAt:  po.CreatedAt,
		UpdatedAt:  po.UpdatedAt,
	}
}
