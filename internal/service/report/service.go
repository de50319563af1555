package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
	orderrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/order"
	reportrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/report"
	restaurantrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/storage"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/validation"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/service/report")

// Module provides the report service to Fx.
var Module = fx.Provide(NewService)

// RequestInput asks for the sales report of one restaurant and month.
type RequestInput struct {
	RestaurantID int64 `json:"restaurant_id" validate:"required,gt=0"`
	Month        int   `json:"month" validate:"required,gte=1,lte=12"`
	Year         int   `json:"year" validate:"required,gte=2000"`
}

// GeneratePayload is the job payload of a report generation.
type GeneratePayload struct {
	ReportID int64 `json:"report_id"`
}

// Download is a generated report handed out once.
type Download struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Reports     *reportrepo.Repository
	Orders      *orderrepo.Repository
	Restaurants *restaurantrepo.Repository
	Storage     storage.Store
	Queue       *worker.Queue
	Validate    *validator.Validate
	Config      config.Config
	Logger      *zap.Logger
}

// Service requests, generates and hands out monthly sales reports.
type Service struct {
	reports     *reportrepo.Repository
	orders      *orderrepo.Repository
	restaurants *restaurantrepo.Repository
	storage     storage.Store
	queue       *worker.Queue
	validate    *validator.Validate
	format      string
	logger      *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		reports:     p.Reports,
		orders:      p.Orders,
		restaurants: p.Restaurants,
		storage:     p.Storage,
		queue:       p.Queue,
		validate:    p.Validate,
		format:      p.Config.Reports.Format,
		logger:      p.Logger,
	}
}

// Request creates a pending report and queues its generation.
func (s *Service) Request(ctx context.Context, in RequestInput) (*entity.SalesReport, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Request", trace.WithAttributes(attribute.Int64("restaurant.id", in.RestaurantID)))
	defer span.End()

	if fields := validation.FieldErrors(s.validate.Struct(in)); len(fields) > 0 {
		return nil, errorbank.Validation("invalid report request", errorbank.WithFieldErrors(fields))
	}
	if _, err := s.restaurants.GetActive(ctx, in.RestaurantID); err != nil {
		if errors.Is(err, restaurantrepo.ErrNotFound) {
			return nil, errorbank.Validation("invalid report request",
				errorbank.WithFieldError("restaurant_id", "restaurant does not exist or is inactive"))
		}
		return nil, errorbank.Internal("failed to load restaurant", errorbank.WithCause(err))
	}

	report := &entity.SalesReport{
		RestaurantID: in.RestaurantID,
		Month:        in.Month,
		Year:         in.Year,
		Status:       entity.ReportPending,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create report", errorbank.WithCause(err))
	}

	jobID := fmt.Sprintf("report-%d", report.ID)
	if _, err := s.queue.Submit(ctx, worker.KindReportGeneration, jobID, GeneratePayload{ReportID: report.ID}); err != nil {
		s.markFailed(ctx, report.ID)
		return nil, errorbank.Internal("failed to queue report generation", errorbank.WithCause(err))
	}
	return report, nil
}

// Status returns the report record.
func (s *Service) Status(ctx context.Context, id int64) (*entity.SalesReport, error) {
	report, err := s.reports.Get(ctx, id)
	if errors.Is(err, reportrepo.ErrNotFound) {
		return nil, errorbank.NotFound("report not found")
	}
	if err != nil {
		return nil, errorbank.Internal("failed to load report", errorbank.WithCause(err))
	}
	return report, nil
}

// Generate builds the artifact of a report and stores it. The report is
// processing while this runs and ends completed, or failed when any step
// after loading it goes wrong.
func (s *Service) Generate(ctx context.Context, id int64) (string, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Generate", trace.WithAttributes(attribute.Int64("report.id", id)))
	defer span.End()

	report, err := s.Status(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "load failed")
		return "", err
	}
	if err := s.reports.UpdateStatus(ctx, id, entity.ReportProcessing); err != nil {
		span.RecordError(err)
		s.markFailed(ctx, id)
		return "", errorbank.Internal("failed to mark report processing", errorbank.WithCause(err))
	}

	key, err := s.build(ctx, report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.markFailed(ctx, id)
		s.logger.Error("report generation failed", zap.Int64("report_id", id), zap.Error(err))
		return "", err
	}

	s.logger.Info("report generated", zap.Int64("report_id", id), zap.String("file_key", key))
	return key, nil
}

func (s *Service) build(ctx context.Context, report *entity.SalesReport) (string, error) {
	restaurant, err := s.restaurants.Get(ctx, report.RestaurantID)
	if err != nil {
		return "", fmt.Errorf("load restaurant %d: %w", report.RestaurantID, err)
	}

	from := time.Date(report.Year, time.Month(report.Month), 1, 0, 0, 0, 0, time.UTC)
	summary, err := s.orders.Summarize(ctx, report.RestaurantID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return "", fmt.Errorf("summarize orders: %w", err)
	}

	tmp, err := os.CreateTemp("", "sales-report-*."+s.format)
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := writeArtifact(tmp, s.format, summaryRow(restaurant, summary)); err != nil {
		return "", err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	key := artifactKey(report, s.format)
	if err := s.storage.Put(ctx, key, tmp); err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	if report.FileKey != nil && *report.FileKey != key {
		if err := s.storage.Delete(ctx, *report.FileKey); err != nil {
			s.logger.Warn("failed to remove previous report artifact", zap.String("file_key", *report.FileKey), zap.Error(err))
		}
	}

	if err := s.reports.Complete(ctx, report.ID, key); err != nil {
		return "", fmt.Errorf("complete report: %w", err)
	}
	return key, nil
}

// Download returns a completed report's artifact, then deletes the artifact
// and the report record.
func (s *Service) Download(ctx context.Context, id int64) (Download, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Download", trace.WithAttributes(attribute.Int64("report.id", id)))
	defer span.End()

	report, err := s.Status(ctx, id)
	if err != nil {
		return Download{}, err
	}
	if report.Status != entity.ReportCompleted || report.FileKey == nil {
		return Download{}, errorbank.NotFound("report not available", errorbank.WithDetail("status", report.Status))
	}

	key := *report.FileKey
	rc, err := s.storage.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return Download{}, errorbank.NotFound("report file not found")
	}
	if err != nil {
		return Download{}, errorbank.Internal("failed to open report file", errorbank.WithCause(err))
	}
	content, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return Download{}, errorbank.Internal("failed to read report file", errorbank.WithCause(err))
	}

	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete downloaded report file", zap.String("file_key", key), zap.Error(err))
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete downloaded report", zap.Int64("report_id", id), zap.Error(err))
	}

	return Download{
		Filename:    path.Base(key),
		ContentType: contentType(key),
		Content:     content,
	}, nil
}

func (s *Service) markFailed(ctx context.Context, id int64) {
	if err := s.reports.UpdateStatus(ctx, id, entity.ReportFailed); err != nil {
		s.logger.Error("failed to mark report failed", zap.Int64("report_id", id), zap.Error(err))
	}
}
