package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/cache"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/jobstatus"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/messaging"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

func TestSubmitQueuesImportJob(t *testing.T) {
	logger := zaptest.NewLogger(t)
	client := messaging.NewMemoryClient("jobs", 1, logger)
	cfg := config.Config{Jobs: config.Jobs{UploadMaxBytes: 1 << 10}}
	svc := NewService(worker.NewQueue(client, logger), jobstatus.New(cache.NewMemoryStore(time.Minute), cfg), cfg, logger)

	job, err := svc.Submit(context.Background(), []byte(csvRows(1)))
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, worker.KindBulkUserImport, job.Kind)

	var payload ImportPayload
	require.NoError(t, job.Decode(&payload))
	assert.Equal(t, csvRows(1), payload.Content)

	queued, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.JobQueued, queued.Status)
	assert.Equal(t, job.ID, queued.TaskID)
	assert.Zero(t, queued.Total)

	_, err = svc.Status(context.Background(), "unknown")
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestSubmitRecordsFailureWhenQueueIsDown(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := config.Config{Jobs: config.Jobs{UploadMaxBytes: 1 << 10, StatusTTL: time.Minute}}
	mem := cache.NewMemoryStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	client := messaging.NewMemoryClient("jobs", 1, logger)
	require.NoError(t, client.Publish(ctx, nil, []byte("fill")))
	cancel()

	svc := NewService(worker.NewQueue(client, logger), jobstatus.New(mem, cfg), cfg, logger)
	_, err := svc.Submit(ctx, []byte(csvRows(1)))
	require.True(t, errorbank.IsKind(err, errorbank.KindInternal))
	assert.Equal(t, 1, mem.Len())
}

func TestSubmitRejectsEmptyAndOversizedFiles(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := config.Config{Jobs: config.Jobs{UploadMaxBytes: 16}}
	svc := NewService(worker.NewQueue(messaging.NewMemoryClient("jobs", 1, logger), logger), nil, cfg, logger)

	_, err := svc.Submit(context.Background(), []byte("  \n"))
	assert.True(t, errorbank.IsKind(err, errorbank.KindValidation))

	_, err = svc.Submit(context.Background(), []byte(csvRows(3)))
	assert.True(t, errorbank.IsKind(err, errorbank.KindValidation))
}
