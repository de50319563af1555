// Package storage keeps generated files such as sales report artifacts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
)

// ErrNotFound indicates the key has no stored object.
var ErrNotFound = errors.New("object not found")

// Store is a flat key -> blob store.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Module provides the configured Store to Fx.
var Module = fx.Provide(New)

// New selects the storage driver from configuration.
func New(cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Storage.Driver {
	case "local":
		logger.Info("using local file storage", zap.String("root", cfg.Storage.LocalRoot))
		return NewLocal(cfg.Storage.LocalRoot)
	case "s3":
		logger.Info("using s3 storage", zap.String("bucket", cfg.Storage.S3.Bucket))
		return NewS3(context.Background(), cfg.Storage.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}
