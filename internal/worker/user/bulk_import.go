package user

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	usersvc "github.com/SilkenBread/restaurant-ordering-backend/internal/service/user"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

var workerTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/worker/user")

// Module registers user worker handlers.
var Module = fx.Module("worker_user",
	fx.Provide(
		fx.Annotate(
			NewBulkImportHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewBulkImportHandler runs queued CSV user imports.
func NewBulkImportHandler(importer *usersvc.Importer, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, job worker.Job) error {
		ctx, span := workerTracer.Start(ctx, "worker.users.bulk_import", trace.WithAttributes(
			attribute.String("job.id", job.ID),
		))
		defer span.End()

		var payload usersvc.ImportPayload
		if err := job.Decode(&payload); err != nil {
			logger.Error("failed to decode bulk import", zap.String("job_id", job.ID), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return errorbank.BadRequest("malformed import payload", errorbank.WithCause(err))
		}

		result, err := importer.ImportCSV(ctx, job.ID, []byte(payload.Content))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "import failed")
			return err
		}
		span.SetAttributes(attribute.Int("import.success", result.Success), attribute.Int("import.errors", len(result.Errors)))
		return nil
	}

	return worker.HandlerRegistration{
		Kind:        worker.KindBulkUserImport,
		Handler:     handler,
		MaxAttempts: cfg.Jobs.MaxAttempts,
	}
}
