package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/messaging"
)

// Kind names a job body registered with the Engine.
type Kind string

const (
	KindBulkUserImport   Kind = "users.bulk_import"
	KindReportGeneration Kind = "reports.generate"
)

// Job is the envelope carried over the message bus.
type Job struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// Decode unmarshals the job payload into v.
func (j Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Kind, err)
	}
	return nil
}

// Queue submits jobs for asynchronous execution.
type Queue struct {
	client messaging.Client
	logger *zap.Logger
}

// NewQueue builds a Queue publishing through client.
func NewQueue(client messaging.Client, logger *zap.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

// Submit publishes a job and returns its handle without waiting for it to run.
// An empty id is replaced with a generated one.
func (q *Queue) Submit(ctx context.Context, kind Kind, id string, payload any) (Job, error) {
	if id == "" {
		id = uuid.NewString()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}

	job := Job{ID: id, Kind: kind, Payload: raw, SubmittedAt: time.Now().UTC()}
	envelope, err := json.Marshal(job)
	if err != nil {
		return Job{}, err
	}
	if err := q.client.Publish(ctx, []byte(id), envelope); err != nil {
		return Job{}, fmt.Errorf("publish %s job: %w", kind, err)
	}

	q.logger.Info("job submitted", zap.String("job_id", id), zap.String("kind", string(kind)))
	return job, nil
}
