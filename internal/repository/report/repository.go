package report

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/database"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
)

var repoTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/repository/report")

// ErrNotFound is returned when a sales report does not exist.
var ErrNotFound = errors.New("report not found")

// Repository persists sales report records.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a report record.
func (r *Repository) Create(ctx context.Context, report *entity.SalesReport) error {
	ctx, span := repoTracer.Start(ctx, "ReportRepository.Create", trace.WithAttributes(attribute.Int64("restaurant.id", report.RestaurantID)))
	defer span.End()

	now := time.Now().UTC()
	report.CreatedAt, report.UpdatedAt = now, now
	if _, err := r.writer.NewInsert().Model(report).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Get loads a report by id. Reports are read from the writer so that a
// worker sees the record the request path just created.
func (r *Repository) Get(ctx context.Context, id int64) (*entity.SalesReport, error) {
	ctx, span := repoTracer.Start(ctx, "ReportRepository.Get", trace.WithAttributes(attribute.Int64("report.id", id)))
	defer span.End()

	report := new(entity.SalesReport)
	err := r.writer.NewSelect().Model(report).Where("sr.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return report, nil
}

// UpdateStatus moves a report to status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status entity.ReportStatus) error {
	return r.update(ctx, id, "ReportRepository.UpdateStatus", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("status = ?", status)
	})
}

// Complete marks a report completed and records its artifact key.
func (r *Repository) Complete(ctx context.Context, id int64, fileKey string) error {
	return r.update(ctx, id, "ReportRepository.Complete", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("status = ?", entity.ReportCompleted).Set("file_key = ?", fileKey)
	})
}

// Delete removes a report record permanently.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "ReportRepository.Delete", trace.WithAttributes(attribute.Int64("report.id", id)))
	defer span.End()

	_, err := r.writer.NewDelete().Model((*entity.SalesReport)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
	}
	return err
}

func (r *Repository) update(ctx context.Context, id int64, name string, apply func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	ctx, span := repoTracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("report.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.SalesReport)(nil)).
		Apply(apply).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
