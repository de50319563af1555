package order

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/cache"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
)

const listGenerationKey = "orders:list:generation"

// readCache memoises order read models. Detail entries are keyed by id; list
// pages are keyed under a generation token that every write rotates, which
// retires all cached pages at once. The cache is never authoritative.
type readCache struct {
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

func detailKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (c readCache) getDetail(ctx context.Context, id int64) (dto.OrderResponse, bool) {
	var resp dto.OrderResponse
	return resp, c.get(ctx, detailKey(id), &resp)
}

func (c readCache) putDetail(ctx context.Context, resp dto.OrderResponse) {
	c.put(ctx, detailKey(resp.ID), resp)
}

func (c readCache) getList(ctx context.Context, query ListInput) (dto.OrderPage, string, bool) {
	var page dto.OrderPage
	key, err := c.listKey(ctx, query)
	if err != nil {
		c.logger.Warn("orders list cache key failed", zap.Error(err))
		return page, "", false
	}
	return page, key, c.get(ctx, key, &page)
}

func (c readCache) putList(ctx context.Context, key string, page dto.OrderPage) {
	if key != "" {
		c.put(ctx, key, page)
	}
}

// invalidate drops the detail entry for id and retires every cached list page.
// Failures are logged and swallowed.
func (c readCache) invalidate(ctx context.Context, id int64) {
	if err := c.store.Delete(ctx, detailKey(id)); err != nil {
		c.logger.Warn("orders cache invalidation failed", zap.Int64("order_id", id), zap.Error(err))
	}
	if err := c.store.Set(ctx, listGenerationKey, []byte(uuid.NewString()), 0); err != nil {
		c.logger.Warn("orders list generation rotation failed", zap.Error(err))
	}
}

func (c readCache) listKey(ctx context.Context, query ListInput) (string, error) {
	gen, err := c.store.Get(ctx, listGenerationKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		gen = []byte(uuid.NewString())
		err = c.store.Set(ctx, listGenerationKey, gen, 0)
	}
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(query)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("orders:list:%s:%s", gen, hex.EncodeToString(sum[:12])), nil
}

func (c readCache) get(ctx context.Context, key string, v any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("orders cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.logger.Warn("orders cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c readCache) put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("orders cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("orders cache write failed", zap.String("key", key), zap.Error(err))
	}
}
