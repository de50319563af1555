package restaurant

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

var repoTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/repository/restaurant")

// ErrNotFound is returned when a restaurant is missing or inactive.
var ErrNotFound = errors.New("restaurant not found")

// Repository reads restaurants.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a restaurant. Used by the seeder.
func (r *Repository) Create(ctx context.Context, restaurant *entity.Restaurant) error {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.Create", trace.WithAttributes(attribute.String("restaurant.name", restaurant.Name)))
	defer span.End()

	now := time.Now().UTC()
	restaurant.CreatedAt, restaurant.UpdatedAt = now, now
	if restaurant.Lifecycle == "" {
		restaurant.Lifecycle = entity.LifecycleActive
	}
	_, err := r.writer.NewInsert().Model(restaurant).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetActive loads an active restaurant by id.
func (r *Repository) GetActive(ctx context.Context, id int64) (*entity.Restaurant, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.GetActive", trace.WithAttributes(attribute.Int64("restaurant.id", id)))
	defer span.End()

	restaurant := new(entity.Restaurant)
	err := r.reader.NewSelect().Model(restaurant).Where("r.id = ?", id).Apply(entity.Active).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return restaurant, nil
}

// Get loads a restaurant by id regardless of lifecycle.
func (r *Repository) Get(ctx context.Context, id int64) (*entity.Restaurant, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.Get", trace.WithAttributes(attribute.Int64("restaurant.id", id)))
	defer span.End()

	restaurant := new(entity.Restaurant)
	err := r.reader.NewSelect().Model(restaurant).Where("r.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return restaurant, nil
}

// GetByName loads a restaurant by its unique name regardless of lifecycle.
func (r *Repository) GetByName(ctx context.Context, name string) (*entity.Restaurant, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.GetByName")
	defer span.End()

	restaurant := new(entity.Restaurant)
	err := r.reader.NewSelect().Model(restaurant).Where("r.name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return restaurant, nil
}

// ActiveIDs snapshots the ids of every active restaurant.
func (r *Repository) ActiveIDs(ctx context.Context) (map[int64]struct{}, error) {
	ctx, span := repoTracer.Start(ctx, "RestaurantRepository.ActiveIDs")
	defer span.End()

	var ids []int64
	err := r.reader.NewSelect().
		Model((*entity.Restaurant)(nil)).
		Column("r.id").
		Apply(entity.Active).
		Scan(ctx, &ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	span.SetAttributes(attribute.Int("restaurant.count", len(set)))
	return set, nil
}
