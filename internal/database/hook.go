package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// queryLogger reports failed and slow statements. A zero threshold turns
// slow-query logging off.
type queryLogger struct {
	logger    *zap.Logger
	threshold time.Duration
}

var _ bun.QueryHook = (*queryLogger)(nil)

func newQueryLogger(logger *zap.Logger, threshold time.Duration) *queryLogger {
	return &queryLogger{logger: logger, threshold: threshold}
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		h.logger.Warn("query failed",
			zap.String("operation", event.Operation()),
			zap.Duration("elapsed", elapsed),
			zap.String("query", event.Query),
			zap.Error(event.Err),
		)
	case h.threshold > 0 && elapsed >= h.threshold:
		h.logger.Warn("slow query",
			zap.String("operation", event.Operation()),
			zap.Duration("elapsed", elapsed),
			zap.String("query", event.Query),
		)
	}
}
