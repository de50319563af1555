package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/testutil"
)

func TestHealthPingsDatabase(t *testing.T) {
	db := testutil.NewDB(t)
	e := NewEcho(config.Config{}, nil, testutil.Connections(db), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	_ = db.Close()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	e := NewEcho(config.Config{}, nil, nil, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"status":"error","code":"not_found","message":"Not Found"}`, rec.Body.String())
}

func TestBodyLimitRejectsLargeUploads(t *testing.T) {
	e := NewEcho(config.Config{Jobs: config.Jobs{UploadMaxBytes: 1}}, nil, nil, zaptest.NewLogger(t))
	e.POST("/upload", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 200<<10)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"file"`)
}
