package report

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/presentation/http/response"
	service "github.com/SilkenBread/restaurant-ordering-backend/internal/service/report"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/transport/http/report")

// Module wires HTTP report handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler exposes sales report endpoints.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a report Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/reports")
	g.POST("", h.request)
	g.GET("/:id", h.status)
	g.GET("/:id/download", h.download)
}

func (h *Handler) request(c echo.Context) error {
	b := response.New(c)

	var payload service.RequestInput
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.request", trace.WithAttributes(attribute.Int64("restaurant.id", payload.RestaurantID)))
	defer span.End()

	report, err := h.svc.Request(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusAccepted).WithData(dto.ReportAccepted{
		ReportID: report.ID,
		Status:   string(report.Status),
	}).Build()
}

func (h *Handler) status(c echo.Context) error {
	b := response.New(c)

	id, err := reportID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.status", trace.WithAttributes(attribute.Int64("report.id", id)))
	defer span.End()

	report, err := h.svc.Status(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewReportResponse(report)).Build()
}

func (h *Handler) download(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.download", trace.WithAttributes(attribute.Int64("report.id", id)))
	defer span.End()

	dl, err := h.svc.Download(ctx, id)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.Filename))
	return c.Blob(http.StatusOK, dl.ContentType, dl.Content)
}

func reportID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid report id")
	}
	return id, nil
}
