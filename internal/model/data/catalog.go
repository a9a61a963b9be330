package data

import (
	"context"
	"time"

	"github.com/ashwood-health/scr-backend/internal/model/biz"
	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"github.com/sashabaranov/go-openai"
)

// OpenAICatalog lists and retrieves models from the OpenAI API
type OpenAICatalog struct {
	client *openai.Client
}

// NewOpenAICatalog creates a new OpenAI catalog provider
func NewOpenAICatalog(client *openai.Client) *OpenAICatalog {
	return &OpenAICatalog{client: client}
}

// ListModels lists the provider's model catalog
func (c *OpenAICatalog) ListModels(ctx context.Context) ([]*biz.CatalogModel, error) {
	resp, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrAssistantProvision, "failed to list models")
	}

	result := make([]*biz.CatalogModel, 0, len(resp.Models))
	for _, m := range resp.Models {
		result = append(result, &biz.CatalogModel{ID: m.ID, OwnedBy: m.OwnedBy})
	}
	return result, nil
}

// RetrieveModel retrieves one model's metadata from the provider
func (c *OpenAICatalog) RetrieveModel(ctx context.Context, openaiID string) (*biz.CatalogModel, error) {
	m, err := c.client.GetModel(ctx, openaiID)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrAssistantProvision,
			"failed to retrieve model %s", openaiID)
	}
	return &biz.CatalogModel{ID: m.ID, OwnedBy: m.OwnedBy}, nil
}

const (
	lastSyncedKey = "models:last_synced"
	syncLockKey   = "models:sync_lock"
)

// RedisSyncState keeps model sync bookkeeping in Redis
type RedisSyncState struct {
	rdb *redis.Client
}

// NewRedisSyncState creates a new Redis-backed sync state store
func NewRedisSyncState(rdb *redis.Client) *RedisSyncState {
	return &RedisSyncState{rdb: rdb}
}

// LastSynced returns the last successful sync time; zero when never synced
func (s *RedisSyncState) LastSynced(ctx context.Context) (time.Time, error) {
	val, err := s.rdb.Get(ctx, lastSyncedKey).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, val)
}

// SetLastSynced records a successful sync
func (s *RedisSyncState) SetLastSynced(ctx context.Context, t time.Time) error {
	return s.rdb.Set(ctx, lastSyncedKey, t.Format(time.RFC3339), 0).Err()
}

// TryLock acquires the sync lock; returns false when a sync is running
func (s *RedisSyncState) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, syncLockKey, "1", ttl).Result()
}

// Unlock releases the sync lock
func (s *RedisSyncState) Unlock(ctx context.Context) error {
	return s.rdb.Del(ctx, syncLockKey).Err()
}
