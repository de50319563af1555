package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/messaging"
	orderrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/order"
	reportrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/report"
	restaurantrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	service "github.com/SilkenBread/restaurant-ordering-backend/internal/service/report"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/storage"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/testutil"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/validation"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
)

func TestReportRequestStatusAndDownload(t *testing.T) {
	db := testutil.NewDB(t)
	conns := testutil.Connections(db)
	logger := zaptest.NewLogger(t)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		Reports:     reportrepo.NewRepository(conns),
		Orders:      orderrepo.NewRepository(conns),
		Restaurants: restaurantrepo.NewRepository(conns),
		Storage:     store,
		Queue:       worker.NewQueue(messaging.NewMemoryClient("jobs", 4, logger), logger),
		Validate:    validation.New(),
		Config:      config.Config{Reports: config.Reports{Format: "csv"}},
		Logger:      logger,
	})
	e := echo.New()
	Register(e, NewHandler(svc))

	restaurant := testutil.Restaurant(t, db)
	serve := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(http.MethodPost, "/reports", fmt.Sprintf(`{"restaurant_id":%d,"month":2,"year":2024}`, restaurant.ID))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var accepted struct {
		Data dto.ReportAccepted `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, "pending", accepted.Data.Status)

	path := fmt.Sprintf("/reports/%d", accepted.Data.ReportID)
	rec = serve(http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"downloadable":false`)

	rec = serve(http.MethodGet, path+"/download", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err = svc.Generate(t.Context(), accepted.Data.ReportID)
	require.NoError(t, err)

	rec = serve(http.MethodGet, path+"/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "sales_report_")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Restaurant ID,Name"))

	rec = serve(http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportRequestValidation(t *testing.T) {
	e := echo.New()
	Register(e, NewHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/reports/abc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
