package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orghub/orghub/internal/domain"
)

// ErrCacheMiss is returned when no entry exists for a slug.
var ErrCacheMiss = errors.New("redis: cache miss")

// ConfigCache is a cache-aside store for resolved org configs, keyed by slug.
// The TTL is a backstop only; the settings write path invalidates explicitly
// so admins never see stale branding after a save.
type ConfigCache struct {
	client *redis.Client
	ttl    time.Duration
}

// cachedConfig wraps the config with the org row's updated_at so a reader can
// tell which settings version produced the entry.
type cachedConfig struct {
	Config    *domain.OrgConfig `json:"config"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewConfigCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*ConfigCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.NewConfigCache: ping: %w", err)
	}

	return &ConfigCache{client: client, ttl: ttl}, nil
}

func (c *ConfigCache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("redis.ConfigCache.Close: %w", err)
	}
	return nil
}

func configKey(slug string) string {
	return "orgcfg:" + slug
}

func (c *ConfigCache) Get(ctx context.Context, slug string) (*domain.OrgConfig, error) {
	raw, err := c.client.Get(ctx, configKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis.ConfigCache.Get: %w", ErrCacheMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("redis.ConfigCache.Get: %w", err)
	}

	var entry cachedConfig
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("redis.ConfigCache.Get: unmarshal: %w", err)
	}

	return entry.Config, nil
}

func (c *ConfigCache) Set(ctx context.Context, slug string, cfg *domain.OrgConfig, updatedAt time.Time) error {
	raw, err := json.Marshal(cachedConfig{Config: cfg, UpdatedAt: updatedAt})
	if err != nil {
		return fmt.Errorf("redis.ConfigCache.Set: marshal: %w", err)
	}

	if err := c.client.SetEx(ctx, configKey(slug), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis.ConfigCache.Set: %w", err)
	}

	return nil
}

// Invalidate drops the entry for a slug. Called on every settings write.
func (c *ConfigCache) Invalidate(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, configKey(slug)).Err(); err != nil {
		return fmt.Errorf("redis.ConfigCache.Invalidate: %w", err)
	}

	return nil
}
