// Package jobstatus keeps the short-lived results of bulk import jobs.
package jobstatus

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/fx"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/cache"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

const keyPrefix = "bulk_user_task_"

// Module provides the job status store to Fx.
var Module = fx.Provide(New)

// Store maps job ids to their latest JobResult with bounded retention.
type Store struct {
	cache cache.Store
	ttl   time.Duration
}

// New builds a Store on top of the configured cache backend. Results are
// polled by callers, so a disabled cache is replaced with an in-process one.
func New(store cache.Store, cfg config.Config) *Store {
	if cache.IsNoop(store) {
		store = cache.NewMemoryStore(cfg.Jobs.StatusTTL)
	}
	return &Store{cache: store, ttl: cfg.Jobs.StatusTTL}
}

// Put records result for jobID. A non-positive ttl uses the configured retention.
func (s *Store) Put(ctx context.Context, jobID string, result dto.JobResult, ttl time.Duration) error {
	if jobID == "" {
		return errors.New("job id is required")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, keyPrefix+jobID, payload, ttl)
}

// Get returns the stored result. Unknown or expired ids are a not-found error.
func (s *Store) Get(ctx context.Context, jobID string) (dto.JobResult, error) {
	payload, err := s.cache.Get(ctx, keyPrefix+jobID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return dto.JobResult{}, errorbank.NotFound("job not found or expired", errorbank.WithDetail("task_id", jobID))
	}
	if err != nil {
		return dto.JobResult{}, errorbank.Internal("failed to read job status", errorbank.WithCause(err))
	}

	var result dto.JobResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return dto.JobResult{}, errorbank.Internal("corrupt job status", errorbank.WithCause(err))
	}
	return result, nil
}
