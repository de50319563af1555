package user

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/presentation/http/response"
	service "github.com/SilkenBread/restaurant-ordering-backend/internal/service/user"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/SilkenBread/restaurant-ordering-backend/transport/http/user")

const bulkImportPath = "/users/bulk-import"

// Module wires HTTP user handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler accepts bulk user imports and reports their progress.
type Handler struct {
	svc      *service.Service
	maxBytes int64
}

// NewHandler constructs a user Handler.
func NewHandler(svc *service.Service, cfg config.Config) *Handler {
	return &Handler{svc: svc, maxBytes: cfg.Jobs.UploadMaxBytes}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.POST(bulkImportPath, h.bulkImport)
	e.GET(bulkImportPath+"/:task_id", h.status)
}

func (h *Handler) bulkImport(c echo.Context) error {
	b := response.New(c)

	content, err := h.readUpload(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.bulkImport", trace.WithAttributes(attribute.Int("upload.bytes", len(content))))
	defer span.End()

	job, err := h.svc.Submit(ctx, content)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusAccepted).WithData(dto.JobAccepted{
		TaskID:    job.ID,
		StatusURL: bulkImportPath + "/" + job.ID,
	}).Build()
}

func (h *Handler) readUpload(c echo.Context) ([]byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, errorbank.Validation("invalid upload", errorbank.WithFieldError("file", "a CSV file is required"))
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return nil, errorbank.Validation("invalid upload", errorbank.WithFieldError("file", "file must be a .csv"))
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return nil, h.tooLarge()
	}

	f, err := header.Open()
	if err != nil {
		return nil, errorbank.BadRequest("unreadable upload", errorbank.WithCause(err))
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxBytes > 0 {
		r = io.LimitReader(f, h.maxBytes+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errorbank.BadRequest("unreadable upload", errorbank.WithCause(err))
	}
	if h.maxBytes > 0 && int64(len(content)) > h.maxBytes {
		return nil, h.tooLarge()
	}
	return content, nil
}

func (h *Handler) tooLarge() error {
	msg := "file exceeds " + humanize.IBytes(uint64(h.maxBytes))
	return errorbank.Validation("invalid upload", errorbank.WithFieldError("file", msg))
}

func (h *Handler) status(c echo.Context) error {
	b := response.New(c)
	taskID := c.Param("task_id")

	ctx, span := httpTracer.Start(c.Request().Context(), "users.bulkImportStatus", trace.WithAttributes(attribute.String("job.id", taskID)))
	defer span.End()

	result, err := h.svc.Status(ctx, taskID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(result).Build()
}
