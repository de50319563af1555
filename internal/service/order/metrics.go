package order

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

var defaultMeter = otel.Meter("github.com/SilkenBread/restaurant-ordering-backend/service/order")

type orderMetrics struct {
	created metric.Int64Counter
	deleted metric.Int64Counter
}

func newOrderMetrics(meter metric.Meter, logger *zap.Logger) orderMetrics {
	fallback := noop.NewMeterProvider().Meter("order")

	created, err := meter.Int64Counter("orders.created", metric.WithDescription("Orders placed, by restaurant"))
	if err != nil {
		logger.Warn("orders.created counter unavailable", zap.Error(err))
		created, _ = fallback.Int64Counter("orders.created")
	}
	deleted, err := meter.Int64Counter("orders.deleted", metric.WithDescription("Orders soft-deleted"))
	if err != nil {
		logger.Warn("orders.deleted counter unavailable", zap.Error(err))
		deleted, _ = fallback.Int64Counter("orders.deleted")
	}
	return orderMetrics{created: created, deleted: deleted}
}

func (m orderMetrics) orderCreated(ctx context.Context, restaurantID int64) {
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.Int64("restaurant.id", restaurantID)))
}

func (m orderMetrics) orderDeleted(ctx context.Context) {
	m.deleted.Add(ctx, 1)
}
