package order

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/presentation/http/response"
	service "github.com/SilkenBread/restaurant-ordering-backend/internal/service/order"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(order).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	in, err := parseListQuery(c.QueryParams())
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	page, err := h.svc.List(ctx, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(page).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload service.CreateInput
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	span.SetAttributes(
		attribute.Int64("restaurant.id", payload.RestaurantID),
		attribute.Int("order.items", len(payload.Items)),
	)
	defer span.End()

	order, err := h.svc.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(order).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload service.UpdateInput
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	result, err := h.svc.Update(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	if result.NoChanges {
		b.WithMeta("no_changes", true)
	}
	return b.WithData(result.Order).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	deleted, err := h.svc.Delete(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	if !deleted {
		return b.WithError(errorbank.NotFound("order not found")).Build()
	}
	return b.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id")
	}
	return id, nil
}

// parseListQuery maps query parameters onto a listing filter. Dates accept
// RFC 3339 timestamps or plain YYYY-MM-DD days.
func parseListQuery(q url.Values) (service.ListInput, error) {
	var (
		in     service.ListInput
		fields = make(map[string][]string)
	)

	ints := map[string]**int64{
		"customer":   &in.CustomerID,
		"restaurant": &in.RestaurantID,
		"menu_item":  &in.MenuItemID,
	}
	for key, dst := range ints {
		if raw := q.Get(key); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				fields[key] = append(fields[key], "must be an integer")
				continue
			}
			*dst = &v
		}
	}

	amounts := map[string]**decimal.Decimal{
		"min_amount": &in.MinAmount,
		"max_amount": &in.MaxAmount,
	}
	for key, dst := range amounts {
		if raw := q.Get(key); raw != "" {
			v, err := decimal.NewFromString(raw)
			if err != nil {
				fields[key] = append(fields[key], "must be a decimal number")
				continue
			}
			*dst = &v
		}
	}

	dates := map[string]**time.Time{
		"created_from": &in.CreatedFrom,
		"created_to":   &in.CreatedTo,
	}
	for key, dst := range dates {
		if raw := q.Get(key); raw != "" {
			v, err := parseTime(raw)
			if err != nil {
				fields[key] = append(fields[key], "must be an RFC 3339 timestamp or YYYY-MM-DD date")
				continue
			}
			*dst = &v
		}
	}

	if raw := q.Get("status"); raw != "" {
		in.Status = &raw
	}
	for key, dst := range map[string]*int{"page": &in.Page, "page_size": &in.PageSize} {
		if raw := q.Get(key); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				fields[key] = append(fields[key], "must be an integer")
				continue
			}
			*dst = v
		}
	}

	if len(fields) > 0 {
		return service.ListInput{}, errorbank.Validation("invalid filter", errorbank.WithFieldErrors(fields))
	}
	return in, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
