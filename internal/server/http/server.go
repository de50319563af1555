package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/database"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/observability"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/presentation/http/response"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

// uploadOverhead leaves room for multipart framing around an upload.
const uploadOverhead = 64 << 10

// NewEcho configures the Echo router with recovery, body limits, tracing and
// the health and metrics routes.
func NewEcho(cfg config.Config, obs *observability.Manager, conns *database.Connections, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			err = fromHTTPError(he)
		} else {
			logger.Error("http request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		if buildErr := response.New(c).WithError(err).Build(); buildErr != nil {
			logger.Warn("failed to write error response", zap.Error(buildErr))
		}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.Jobs.UploadMaxBytes > 0 {
		e.Use(middleware.BodyLimit(strconv.FormatInt((cfg.Jobs.UploadMaxBytes+uploadOverhead)/1024, 10) + "K"))
	}
	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if conns != nil {
			if err := conns.Writer.PingContext(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(cfg.Observability.PrometheusPath, echo.WrapHandler(obs.MetricsHandler()))
	}

	return e
}

func fromHTTPError(he *echo.HTTPError) error {
	msg := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		msg = m
	}
	switch {
	case he.Code == http.StatusNotFound:
		return errorbank.NotFound(msg)
	case he.Code == http.StatusRequestEntityTooLarge:
		return errorbank.Validation(msg, errorbank.WithFieldError("file", "file is too large"))
	case he.Code < http.StatusInternalServerError:
		return errorbank.BadRequest(msg, errorbank.WithDetail("status", he.Code))
	default:
		return errorbank.Internal(msg, errorbank.WithCause(he))
	}
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:    addr,
		Handler: e,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
