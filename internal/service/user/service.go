package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/jobstatus"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

// Module provides the user import service and the job body it queues.
var Module = fx.Provide(NewService, NewImporter)

// ImportPayload is the job payload of a bulk user import.
type ImportPayload struct {
	Content string `json:"content"`
}

// Service accepts bulk import files and reports on their jobs.
type Service struct {
	queue    *worker.Queue
	status   *jobstatus.Store
	maxBytes int64
	logger   *zap.Logger
}

// NewService wires a Service.
func NewService(queue *worker.Queue, status *jobstatus.Store, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{queue: queue, status: status, maxBytes: cfg.Jobs.UploadMaxBytes, logger: logger}
}

// Submit queues content for import and returns the job handle immediately.
func (s *Service) Submit(ctx context.Context, content []byte) (worker.Job, error) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return worker.Job{}, errorbank.Validation("invalid upload", errorbank.WithFieldError("file", "the submitted file is empty"))
	}
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return worker.Job{}, errorbank.Validation("invalid upload",
			errorbank.WithFieldError("file", "file exceeds the upload size limit"))
	}

	// queued is recorded before publishing; a worker's result must land after it
	id := uuid.NewString()
	s.record(ctx, dto.JobResult{TaskID: id, Status: dto.JobQueued, Errors: []dto.RowError{}, Details: []dto.RowDetail{}})

	job, err := s.queue.Submit(ctx, worker.KindBulkUserImport, id, ImportPayload{Content: string(content)})
	if err != nil {
		s.logger.Error("bulk import submission failed", zap.Error(err))
		s.record(ctx, dto.JobResult{TaskID: id, Status: dto.JobFailed,
			Errors: []dto.RowError{{Line: 0, Error: "job could not be queued"}}, Details: []dto.RowDetail{}})
		return worker.Job{}, errorbank.Internal("failed to queue import", errorbank.WithCause(err))
	}
	return job, nil
}

func (s *Service) record(ctx context.Context, result dto.JobResult) {
	if err := s.status.Put(ctx, result.TaskID, result, 0); err != nil {
		s.logger.Warn("failed to record import status", zap.String("job_id", result.TaskID), zap.Error(err))
	}
}

// Status returns the latest recorded result of an import job.
func (s *Service) Status(ctx context.Context, jobID string) (dto.JobResult, error) {
	return s.status.Get(ctx, jobID)
}
