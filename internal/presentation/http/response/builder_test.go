package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return echo.New().NewContext(req, rec), rec
}

func TestBuildValidationError(t *testing.T) {
	c, rec := newContext()

	err := errorbank.Validation("invalid order",
		errorbank.WithFieldError("items[0].quantity", "must be greater than 0"),
		errorbank.WithDetail("restaurant_id", 7),
	)
	require.NoError(t, New(c).WithError(err).Build())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "validation_error", body["code"])
	assert.Equal(t, "invalid order", body["message"])
	assert.Equal(t, map[string]any{"items[0].quantity": []any{"must be greater than 0"}}, body["errors"])
	assert.Equal(t, map[string]any{"restaurant_id": float64(7)}, body["details"])
}

func TestBuildUnknownErrorIsInternal(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithError(errors.New("db down")).Build())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal", body.Code)
	assert.Empty(t, body.Errors)
}

func TestBuildSuccessWithMeta(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithStatus(http.StatusCreated).WithData(map[string]int{"id": 1}).WithMeta("no_changes", true).Build())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":1},"meta":{"no_changes":true}}`, rec.Body.String())
}
