package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/database"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
)

var repoTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/repository/order")

// ErrNotFound is returned when an order is missing or inactive.
var ErrNotFound = errors.New("order not found")

// Filter narrows an order listing. Nil fields are ignored.
type Filter struct {
	CustomerID   *int64
	RestaurantID *int64
	MenuItemID   *int64
	Status       *entity.OrderStatus
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// Summary aggregates the orders of one restaurant over a time window.
type Summary struct {
	Count int                 `bun:"order_count"`
	Total decimal.NullDecimal `bun:"total_amount"`
}

// Repository encapsulates read/write access for orders and their items.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// CreateWithItems inserts the order header and then its items in a single
// transaction. A failed item insert rolls the header back.
func (r *Repository) CreateWithItems(ctx context.Context, order *entity.Order, items []*entity.OrderItem) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CreateWithItems", trace.WithAttributes(
		attribute.Int64("restaurant.id", order.RestaurantID),
		attribute.Int("order.items", len(items)),
	))
	defer span.End()

	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now
	if order.Lifecycle == "" {
		order.Lifecycle = entity.LifecycleActive
	}

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for _, item := range items {
			item.OrderID = order.ID
			item.CreatedAt, item.UpdatedAt = now, now
			if item.Lifecycle == "" {
				item.Lifecycle = entity.LifecycleActive
			}
		}
		_, err := tx.NewInsert().Model(&items).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	return nil
}

// GetActive fetches an active order with its active items using the read replica.
func (r *Repository) GetActive(ctx context.Context, id int64) (*entity.Order, error) {
	return r.getActive(ctx, r.reader, "OrderRepository.GetActive", id)
}

// GetActivePrimary is GetActive against the writer. Reads that must observe a
// write just committed use it.
func (r *Repository) GetActivePrimary(ctx context.Context, id int64) (*entity.Order, error) {
	return r.getActive(ctx, r.writer, "OrderRepository.GetActivePrimary", id)
}

func (r *Repository) getActive(ctx context.Context, db bun.IDB, name string, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := db.NewSelect().
		Model(order).
		Relation("Items", activeItems).
		Where("o.id = ?", id).
		Apply(entity.Active).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns one page of active orders matching the filter and the total match count.
func (r *Repository) List(ctx context.Context, f Filter) ([]*entity.Order, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(
		attribute.Int("page.limit", f.Limit),
		attribute.Int("page.offset", f.Offset),
	))
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().
		Model(&orders).
		Relation("Items", activeItems).
		Apply(entity.Active)

	if f.CustomerID != nil {
		q = q.Where("o.customer_id = ?", *f.CustomerID)
	}
	if f.RestaurantID != nil {
		q = q.Where("o.restaurant_id = ?", *f.RestaurantID)
	}
	if f.Status != nil {
		q = q.Where("o.status = ?", *f.Status)
	}
	if f.MinAmount != nil {
		q = q.Where("o.total_amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("o.total_amount <= ?", *f.MaxAmount)
	}
	if f.CreatedFrom != nil {
		q = q.Where("o.created_at >= ?", f.CreatedFrom.UTC())
	}
	if f.CreatedTo != nil {
		q = q.Where("o.created_at <= ?", f.CreatedTo.UTC())
	}
	if f.MenuItemID != nil {
		q = q.Where(
			"EXISTS (SELECT 1 FROM order_items AS x WHERE x.order_id = o.id AND x.menu_item_id = ? AND x.lifecycle = ?)",
			*f.MenuItemID, entity.LifecycleActive,
		)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	count, err := q.Order("o.id DESC").ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return orders, count, nil
}

// Update writes the named columns of an active order.
func (r *Repository) Update(ctx context.Context, order *entity.Order, columns ...string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.StringSlice("order.columns", columns),
	))
	defer span.End()

	order.UpdatedAt = time.Now().UTC()
	res, err := r.writer.NewUpdate().
		Model(order).
		Column(append(columns, "updated_at")...).
		Where("id = ?", order.ID).
		Where("lifecycle = ?", entity.LifecycleActive).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// Deactivate marks the items of an active order inactive and then the order
// itself. It reports false when the order is missing or already inactive.
func (r *Repository) Deactivate(ctx context.Context, id int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Deactivate", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	var deactivated bool
	now := time.Now().UTC()
	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*entity.Order)(nil)).
			Where("o.id = ?", id).
			Apply(entity.Active).
			Exists(ctx)
		if err != nil || !exists {
			return err
		}

		if _, err := tx.NewUpdate().
			Model((*entity.OrderItem)(nil)).
			Set("lifecycle = ?", entity.LifecycleInactive).
			Set("updated_at = ?", now).
			Where("order_id = ?", id).
			Where("lifecycle = ?", entity.LifecycleActive).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().
			Model((*entity.Order)(nil)).
			Set("lifecycle = ?", entity.LifecycleInactive).
			Set("updated_at = ?", now).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		deactivated = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deactivate failed")
		return false, err
	}
	span.SetAttributes(attribute.Bool("order.deactivated", deactivated))
	return deactivated, nil
}

// Summarize counts and totals every order of a restaurant created in [from, to).
// Inactive orders are included: a sales report covers what was sold.
func (r *Repository) Summarize(ctx context.Context, restaurantID int64, from, to time.Time) (Summary, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Summarize", trace.WithAttributes(
		attribute.Int64("restaurant.id", restaurantID),
		attribute.String("window.from", from.Format(time.RFC3339)),
	))
	defer span.End()

	var summary Summary
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("COUNT(*) AS order_count").
		ColumnExpr("SUM(o.total_amount) AS total_amount").
		Where("o.restaurant_id = ?", restaurantID).
		Where("o.created_at >= ?", from.UTC()).
		Where("o.created_at < ?", to.UTC()).
		Scan(ctx, &summary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return Summary{}, err
	}
	return summary, nil
}

func activeItems(q *bun.SelectQuery) *bun.SelectQuery {
	return entity.Active(q).Order("oi.id ASC")
}
