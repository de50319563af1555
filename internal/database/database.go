package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
)

const (
	pingTimeout  = 5 * time.Second
	pingAttempts = 5
	pingBackoff  = 200 * time.Millisecond
)

// Connections bundles writer and reader bun instances. Commands go to
// Writer; list and report queries may use Reader.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB
}

// Single wraps one bun instance as both writer and reader.
func Single(db *bun.DB) *Connections {
	return &Connections{Writer: db, Reader: db}
}

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New opens the writer pool and, when a distinct DSN is configured, a reader
// pool. Both are pinged on start and closed on stop.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	dbCfg := cfg.Database
	log := logger.Named("database")

	writer, err := open(dbCfg, dbCfg.WriterDSN, log)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	conns := Single(writer)
	if dbCfg.ReaderDSN != "" && dbCfg.ReaderDSN != dbCfg.WriterDSN {
		reader, err := open(dbCfg, dbCfg.ReaderDSN, log)
		if err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("open reader: %w", err)
		}
		conns.Reader = reader
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := conns.Ping(ctx); err != nil {
				return err
			}
			log.Info("database connected",
				zap.String("driver", dbCfg.Driver),
				zap.Bool("replica", conns.Reader != conns.Writer),
			)
			return nil
		},
		OnStop: func(context.Context) error {
			return conns.Close()
		},
	})

	return conns, nil
}

// Ping checks both pools, retrying with exponential backoff while the
// database comes up.
func (c *Connections) Ping(ctx context.Context) error {
	if err := pingWithRetry(ctx, c.Writer); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if c.Reader != c.Writer {
		if err := pingWithRetry(ctx, c.Reader); err != nil {
			return fmt.Errorf("ping reader: %w", err)
		}
	}
	return nil
}

// Close releases both pools.
func (c *Connections) Close() error {
	var errs []error
	if err := c.Writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close writer: %w", err))
	}
	if c.Reader != c.Writer {
		if err := c.Reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reader: %w", err))
		}
	}
	return errors.Join(errs...)
}

func pingWithRetry(ctx context.Context, db *bun.DB) error {
	backoff := retry.WithMaxRetries(pingAttempts-1, retry.NewExponential(pingBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
