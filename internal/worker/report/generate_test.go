package report

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/messaging"
	orderrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/order"
	reportrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/report"
	restaurantrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	reportsvc "github.com/SilkenBread/restaurant-ordering-backend/internal/service/report"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/storage"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/testutil"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/validation"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

func TestGenerateHandlerCompletesReport(t *testing.T) {
	db := testutil.NewDB(t)
	conns := testutil.Connections(db)
	logger := zaptest.NewLogger(t)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	reports := reportrepo.NewRepository(conns)
	svc := reportsvc.NewService(reportsvc.Params{
		Reports:     reports,
		Orders:      orderrepo.NewRepository(conns),
		Restaurants: restaurantrepo.NewRepository(conns),
		Storage:     store,
		Queue:       worker.NewQueue(messaging.NewMemoryClient("jobs", 1, logger), logger),
		Validate:    validation.New(),
		Config:      config.Config{Reports: config.Reports{Format: "csv"}},
		Logger:      logger,
	})

	ctx := context.Background()
	restaurant := testutil.Restaurant(t, db)
	report := &entity.SalesReport{RestaurantID: restaurant.ID, Month: 8, Year: 2024, Status: entity.ReportPending}
	require.NoError(t, reports.Create(ctx, report))

	reg := NewGenerateHandler(svc, logger)
	assert.Equal(t, worker.KindReportGeneration, reg.Kind)
	assert.Equal(t, 1, reg.MaxAttempts)

	payload, err := json.Marshal(reportsvc.GeneratePayload{ReportID: report.ID})
	require.NoError(t, err)
	require.NoError(t, reg.Handler(ctx, worker.Job{ID: "report-1", Kind: worker.KindReportGeneration, Payload: payload}))

	stored, err := reports.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportCompleted, stored.Status)

	err = reg.Handler(ctx, worker.Job{ID: "report-2", Kind: worker.KindReportGeneration, Payload: json.RawMessage(`"x"`)})
	require.Error(t, err)
	assert.False(t, errorbank.IsRetryable(err))
}
