package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/access-management/internal"
)

const (
	blacklistPrefix = "blacklist:token:"
	refreshPrefix   = "refresh:token:"
	sessionPrefix   = "session:user:"
)

// RedisCache implements TokenCache on an injected go-redis client. The
// client lifecycle (dial, ping, close) belongs to the caller; see Connect.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, logger: logger}
}

// Connect dials Redis and verifies the connection with a ping. The returned
// client must be closed on shutdown.
func Connect(ctx context.Context, cfg internal.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.SetEx(ctx, blacklistPrefix+token, "1", ttl).Err()
}

func (c *RedisCache) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := c.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *RedisCache) StoreRefreshToken(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	return c.client.SetEx(ctx, refreshKey(userID), token, ttl).Err()
}

func (c *RedisCache) ValidateRefreshToken(ctx context.Context, userID int64, token string) (bool, error) {
	stored, err := c.client.Get(ctx, refreshKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return stored == token, nil
}

func (c *RedisCache) RemoveRefreshToken(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, refreshKey(userID)).Err()
}

func (c *RedisCache) StoreSession(ctx context.Context, userID int64, accessToken string, ttl time.Duration) error {
	return c.client.SetEx(ctx, sessionKey(userID), accessToken, ttl).Err()
}

func (c *RedisCache) IsSessionValid(ctx context.Context, userID int64, accessToken string) (bool, error) {
	stored, err := c.client.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return stored == accessToken, nil
}

func (c *RedisCache) RemoveSession(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, sessionKey(userID)).Err()
}

func (c *RedisCache) ClearTokens(ctx context.Context, userID int64, accessToken, refreshToken string, accessTTL time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	if accessToken != "" && accessTTL > 0 {
		g.Go(func() error {
			return c.Blacklist(gctx, accessToken, accessTTL)
		})
	}

	if refreshToken != "" {
		g.Go(func() error {
			return c.Blacklist(gctx, refreshToken, refreshBlacklistTTL)
		})
	}

	g.Go(func() error {
		return c.RemoveRefreshToken(gctx, userID)
	})

	g.Go(func() error {
		return c.RemoveSession(gctx, userID)
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn("token teardown incomplete", "user_id", userID, "error", err)
		return err
	}
	return nil
}

func refreshKey(userID int64) string {
	return fmt.Sprintf("%s%d", refreshPrefix, userID)
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("%s%d", sessionPrefix, userID)
}
