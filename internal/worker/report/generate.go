package report

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	reportsvc "github.com/SilkenBread/restaurant-ordering-backend/internal/service/report"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

var workerTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/worker/report")

// Module registers report worker handlers.
var Module = fx.Module("worker_report",
	fx.Provide(
		fx.Annotate(
			NewGenerateHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Reports generate once. A failed report stays failed until requested again.
const generateAttempts = 1

// NewGenerateHandler builds sales report artifacts for queued requests.
func NewGenerateHandler(reports *reportsvc.Service, logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, job worker.Job) error {
		ctx, span := workerTracer.Start(ctx, "worker.reports.generate", trace.WithAttributes(
			attribute.String("job.id", job.ID),
		))
		defer span.End()

		var payload reportsvc.GeneratePayload
		if err := job.Decode(&payload); err != nil {
			logger.Error("failed to decode report generation", zap.String("job_id", job.ID), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return errorbank.BadRequest("malformed report payload", errorbank.WithCause(err))
		}
		span.SetAttributes(attribute.Int64("report.id", payload.ReportID))

		if _, err := reports.Generate(ctx, payload.ReportID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generation failed")
			return err
		}
		return nil
	}

	return worker.HandlerRegistration{
		Kind:        worker.KindReportGeneration,
		Handler:     handler,
		MaxAttempts: generateAttempts,
	}
}
