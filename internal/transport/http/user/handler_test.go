package user

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/cache"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/dto"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/jobstatus"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/messaging"
	service "github.com/SilkenBread/restaurant-ordering-backend/internal/service/user"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
)

const sample = "email;password;first_name;last_name;phone;default_address;restaurant_id\n" +
	"lucia@example.com;secret;Lucia;Mora;3005556677;;\n"

func newEcho(t *testing.T, maxBytes int64) (*echo.Echo, *jobstatus.Store) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := config.Config{Jobs: config.Jobs{UploadMaxBytes: maxBytes, StatusTTL: time.Minute}}
	status := jobstatus.New(cache.NewMemoryStore(time.Minute), cfg)
	svc := service.NewService(worker.NewQueue(messaging.NewMemoryClient("jobs", 4, logger), logger), status, cfg, logger)

	e := echo.New()
	Register(e, NewHandler(svc, cfg))
	return e, status
}

func upload(t *testing.T, e *echo.Echo, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, bulkImportPath, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBulkImportAcceptsCSV(t *testing.T) {
	e, status := newEcho(t, 1<<10)

	rec := upload(t, e, "users.csv", sample)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var env struct {
		Data dto.JobAccepted `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotEmpty(t, env.Data.TaskID)
	assert.Equal(t, bulkImportPath+"/"+env.Data.TaskID, env.Data.StatusURL)

	req := httptest.NewRequest(http.MethodGet, env.Data.StatusURL, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"queued"`)

	require.NoError(t, status.Put(req.Context(), env.Data.TaskID,
		dto.JobResult{TaskID: env.Data.TaskID, Status: dto.JobCompleted, Total: 1, Success: 1}, 0))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, env.Data.StatusURL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":1`)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, bulkImportPath+"/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkImportRejectsBadUploads(t *testing.T) {
	e, _ := newEcho(t, 64)

	cases := map[string]struct {
		filename string
		content  string
	}{
		"missing file":   {"", ""},
		"wrong type":     {"users.xlsx", sample},
		"too large":      {"users.csv", sample + sample},
		"empty contents": {"users.csv", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := upload(t, e, tc.filename, tc.content)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"status":"error"`)
		})
	}
}
