package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
)

const (
	pingAttempts = 4
	pingBackoff  = 250 * time.Millisecond
)

// redisStore namespaces every key with a prefix so several deployments can
// share one Redis database.
type redisStore struct {
	client     goredis.UniversalClient
	prefix     string
	defaultTTL time.Duration
}

func newRedisStore(lc fx.Lifecycle, cfg config.Cache, logger *zap.Logger) *redisStore {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := newRedisStoreWithClient(client, cfg.Redis.KeyPrefix, cfg.DefaultTTL)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.ping(ctx); err != nil {
				return err
			}
			logger.Info("redis cache connected", zap.String("addr", cfg.Redis.Addr), zap.String("prefix", cfg.Redis.KeyPrefix))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing redis cache")
			return client.Close()
		},
	})
	return store
}

func newRedisStoreWithClient(client goredis.UniversalClient, prefix string, defaultTTL time.Duration) *redisStore {
	return &redisStore{client: client, prefix: prefix, defaultTTL: defaultTTL}
}

// ping waits for Redis to answer, backing off exponentially between tries.
func (s *redisStore) ping(ctx context.Context) error {
	backoff := retry.WithMaxRetries(pingAttempts-1, retry.NewExponential(pingBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.client.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (s *redisStore) key(k string) string { return s.prefix + k }

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheMiss
	}
	res, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.client.Set(ctx, s.key(key), value, ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(key)).Err()
}
