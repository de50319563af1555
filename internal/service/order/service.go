package order

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/cache"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
	menurepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/menu"
	repo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/order"
	restaurantrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	userrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/user"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/service/order")

// Service places, amends and cancels orders.
type Service struct {
	repo        *repo.Repository
	users       *userrepo.Repository
	restaurants *restaurantrepo.Repository
	menu        *menurepo.Repository
	cache       readCache
	validate    *validator.Validate
	metrics     orderMetrics
	logger      *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Users       *userrepo.Repository
	Restaurants *restaurantrepo.Repository
	Menu        *menurepo.Repository
	Cache       cache.Store
	Validate    *validator.Validate
	Config      config.Config
	Logger      *zap.Logger
}

// UpdateResult is the outcome of a partial update. NoChanges is set when the
// payload carried no fields to apply.
type UpdateResult struct {
	Order     dto.OrderResponse
	NoChanges bool
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:        p.Repository,
		users:       p.Users,
		restaurants: p.Restaurants,
		menu:        p.Menu,
		cache:       readCache{store: p.Cache, ttl: p.Config.Cache.DefaultTTL, logger: p.Logger},
		validate:    p.Validate,
		metrics:     newOrderMetrics(defaultMeter, p.Logger),
		logger:      p.Logger,
	}
}

// Create validates and stores an order with its items, then returns the
// stored order as read back. Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, in CreateInput) (dto.OrderResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(
		attribute.Int64("customer.id", in.CustomerID),
		attribute.Int64("restaurant.id", in.RestaurantID),
		attribute.Int("order.items", len(in.Items)),
	))
	defer span.End()

	if err := s.checkShape(in); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return dto.OrderResponse{}, err
	}
	if err := s.checkReferences(ctx, in); err != nil {
		span.SetStatus(codes.Error, "invalid references")
		return dto.OrderResponse{}, err
	}

	order := &entity.Order{
		CustomerID:          in.CustomerID,
		RestaurantID:        in.RestaurantID,
		Status:              entity.OrderPending,
		TotalAmount:         *in.TotalAmount,
		DeliveryAddress:     in.DeliveryAddress,
		SpecialInstructions: in.SpecialInstructions,
		Lifecycle:           entity.LifecycleActive,
	}
	if in.EstimatedDeliveryTime != nil {
		t := in.EstimatedDeliveryTime.UTC()
		order.EstimatedDeliveryTime = &t
	}
	items := make([]*entity.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, &entity.OrderItem{
			MenuItemID: *item.MenuItemID,
			Quantity:   *item.Quantity,
			Subtotal:   *item.Subtotal,
			Note:       item.Note,
			Lifecycle:  entity.LifecycleActive,
		})
	}

	if err := s.repo.CreateWithItems(ctx, order, items); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.OrderResponse{}, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}
	s.cache.invalidate(ctx, order.ID)
	s.metrics.orderCreated(ctx, order.RestaurantID)

	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("restaurant_id", order.RestaurantID),
		zap.Int("items", len(items)),
	)
	return s.load(ctx, order.ID, s.repo.GetActivePrimary)
}

// Update applies the fields present in the input to an active order.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (UpdateResult, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.repo.GetActivePrimary(ctx, id)
	if err != nil {
		return UpdateResult{}, s.mapRepoError(span, err, "failed to load order")
	}

	columns, err := s.checkUpdate(order, in)
	if err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return UpdateResult{}, err
	}
	if len(columns) == 0 {
		return UpdateResult{Order: dto.NewOrderResponse(order), NoChanges: true}, nil
	}

	if err := s.repo.Update(ctx, order, columns...); err != nil {
		return UpdateResult{}, s.mapRepoError(span, err, "failed to update order")
	}
	s.cache.invalidate(ctx, id)

	s.logger.Info("order updated", zap.Int64("order_id", id), zap.Strings("fields", columns))
	resp, err := s.load(ctx, id, s.repo.GetActivePrimary)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Order: resp}, nil
}

// Delete soft-deletes an order and its items. It returns false when the order
// does not exist or was already deleted.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	deleted, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return false, errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}
	if deleted {
		s.cache.invalidate(ctx, id)
		s.metrics.orderDeleted(ctx)
		s.logger.Info("order deleted", zap.Int64("order_id", id))
	}
	return deleted, nil
}

// Get retrieves an active order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (dto.OrderResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if resp, ok := s.cache.getDetail(ctx, id); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return resp, nil
	}
	return s.load(ctx, id, s.repo.GetActive)
}

// List returns one page of active orders matching the input filters.
func (s *Service) List(ctx context.Context, in ListInput) (dto.OrderPage, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	in.normalize()
	var status *entity.OrderStatus
	if in.Status != nil {
		st := entity.OrderStatus(*in.Status)
		if !st.Valid() {
			return dto.OrderPage{}, errorbank.Validation("invalid filter",
				errorbank.WithFieldError("status", "must be one of: pending, completed, cancelled"))
		}
		status = &st
	}

	page, key, ok := s.cache.getList(ctx, in)
	if ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return page, nil
	}

	orders, count, err := s.repo.List(ctx, repo.Filter{
		CustomerID:   in.CustomerID,
		RestaurantID: in.RestaurantID,
		MenuItemID:   in.MenuItemID,
		Status:       status,
		MinAmount:    in.MinAmount,
		MaxAmount:    in.MaxAmount,
		CreatedFrom:  in.CreatedFrom,
		CreatedTo:    in.CreatedTo,
		Limit:        in.PageSize,
		Offset:       (in.Page - 1) * in.PageSize,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.OrderPage{}, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}

	page = dto.OrderPage{
		Results:  make([]dto.OrderResponse, 0, len(orders)),
		Count:    count,
		Page:     in.Page,
		PageSize: in.PageSize,
	}
	for _, order := range orders {
		page.Results = append(page.Results, dto.NewOrderResponse(order))
	}
	s.cache.putList(ctx, key, page)
	return page, nil
}

// fetch is one of the repository's active-order reads.
type fetch func(ctx context.Context, id int64) (*entity.Order, error)

func (s *Service) load(ctx context.Context, id int64, get fetch) (dto.OrderResponse, error) {
	order, err := get(ctx, id)
	if err != nil {
		return dto.OrderResponse{}, s.mapRepoError(trace.SpanFromContext(ctx), err, "failed to load order")
	}
	resp := dto.NewOrderResponse(order)
	s.cache.putDetail(ctx, resp)
	return resp, nil
}

func (s *Service) mapRepoError(span trace.Span, err error, message string) error {
	if errors.Is(err, repo.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("order not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal(message, errorbank.WithCause(err))
}
