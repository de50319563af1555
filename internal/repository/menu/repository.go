package menu

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/database"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
)

var repoTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/repository/menu")

// Repository reads menu items.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a menu item.
func (r *Repository) Create(ctx context.Context, item *entity.MenuItem) error {
	ctx, span := repoTracer.Start(ctx, "MenuRepository.Create", trace.WithAttributes(attribute.Int64("restaurant.id", item.RestaurantID)))
	defer span.End()

	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	if item.Lifecycle == "" {
		item.Lifecycle = entity.LifecycleActive
	}
	_, err := r.writer.NewInsert().Model(item).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// ActiveByIDs loads the active menu items among ids, keyed by id.
// Missing or inactive ids are simply absent from the result.
func (r *Repository) ActiveByIDs(ctx context.Context, ids []int64) (map[int64]*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "MenuRepository.ActiveByIDs", trace.WithAttributes(attribute.Int64Slice("menu_item.ids", ids)))
	defer span.End()

	out := make(map[int64]*entity.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var items []*entity.MenuItem
	err := r.reader.NewSelect().
		Model(&items).
		Where("mi.id IN (?)", bun.In(ids)).
		Apply(entity.Active).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}
