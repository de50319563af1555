package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/messaging"
	orderrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/order"
	reportrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/report"
	restaurantrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/storage"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/testutil"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/validation"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

type fixture struct {
	svc     *Service
	db      *bun.DB
	store   storage.Store
	reports *reportrepo.Repository
	queue   messaging.Client
}

func newFixture(t *testing.T, format string, store storage.Store) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	conns := testutil.Connections(db)
	logger := zaptest.NewLogger(t)
	if store == nil {
		local, err := storage.NewLocal(t.TempDir())
		require.NoError(t, err)
		store = local
	}
	client := messaging.NewMemoryClient("jobs", 4, logger)
	reports := reportrepo.NewRepository(conns)

	svc := NewService(Params{
		Reports:     reports,
		Orders:      orderrepo.NewRepository(conns),
		Restaurants: restaurantrepo.NewRepository(conns),
		Storage:     store,
		Queue:       worker.NewQueue(client, logger),
		Validate:    validation.New(),
		Config:      config.Config{Reports: config.Reports{Format: format}},
		Logger:      logger,
	})
	return fixture{svc: svc, db: db, store: store, reports: reports, queue: client}
}

func (f fixture) order(t *testing.T, restaurantID int64, total string, at time.Time) {
	t.Helper()
	customer := testutil.Customer(t, f.db, "buyer"+strconv.FormatInt(at.UnixNano(), 10)+"@example.com")
	o := &entity.Order{
		CustomerID:   customer.ID,
		RestaurantID: restaurantID,
		Status:       entity.OrderCompleted,
		TotalAmount:  decimal.RequireFromString(total),
		Lifecycle:    entity.LifecycleActive,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	_, err := f.db.NewInsert().Model(o).Exec(context.Background())
	require.NoError(t, err)
}

func (f fixture) pending(t *testing.T, restaurantID int64, month, year int) *entity.SalesReport {
	t.Helper()
	report := &entity.SalesReport{RestaurantID: restaurantID, Month: month, Year: year, Status: entity.ReportPending}
	require.NoError(t, f.reports.Create(context.Background(), report))
	return report
}

func (f fixture) read(t *testing.T, key string) []byte {
	t.Helper()
	rc, err := f.store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	return content
}

type failingStore struct{ storage.Store }

func (failingStore) Put(context.Context, string, io.Reader) error {
	return errors.New("bucket unavailable")
}

func TestGenerateWritesCSVSummaryOfTheMonth(t *testing.T) {
	f := newFixture(t, formatCSV, nil)
	ctx := context.Background()
	restaurant := testutil.Restaurant(t, f.db)

	march := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	f.order(t, restaurant.ID, "10.50", march)
	f.order(t, restaurant.ID, "20.00", march.Add(time.Hour))
	f.order(t, restaurant.ID, "99.00", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	report := f.pending(t, restaurant.ID, 3, 2024)

	key, err := f.svc.Generate(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("reports/sales_report_%d_2024_03_%d.csv", restaurant.ID, report.ID), key)

	stored, err := f.reports.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportCompleted, stored.Status)
	require.NotNil(t, stored.FileKey)
	assert.Equal(t, key, *stored.FileKey)

	rows, err := csv.NewReader(bytes.NewReader(f.read(t, key))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{strconv.FormatInt(restaurant.ID, 10), restaurant.Name, "2", "30.50"}, rows[1])
}

func TestGenerateWritesXLSX(t *testing.T) {
	f := newFixture(t, formatXLSX, nil)
	ctx := context.Background()
	restaurant := testutil.Restaurant(t, f.db)
	report := f.pending(t, restaurant.ID, 1, 2023)

	key, err := f.svc.Generate(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", key[len(key)-5:])

	book, err := excelize.OpenReader(bytes.NewReader(f.read(t, key)))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{strconv.FormatInt(restaurant.ID, 10), restaurant.Name, "0", "0.00"}, rows[1])
}

func TestGenerateMarksReportFailed(t *testing.T) {
	t.Run("storage error", func(t *testing.T) {
		f := newFixture(t, formatCSV, failingStore{})
		restaurant := testutil.Restaurant(t, f.db)
		report := f.pending(t, restaurant.ID, 2, 2024)

		_, err := f.svc.Generate(context.Background(), report.ID)
		require.Error(t, err)

		stored, err := f.reports.Get(context.Background(), report.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.ReportFailed, stored.Status)
		assert.Nil(t, stored.FileKey)
	})

	t.Run("aggregate error", func(t *testing.T) {
		f := newFixture(t, formatCSV, nil)
		restaurant := testutil.Restaurant(t, f.db)
		report := f.pending(t, restaurant.ID, 2, 2024)
		_, err := f.db.NewDropTable().Model((*entity.Order)(nil)).Exec(context.Background())
		require.NoError(t, err)

		_, err = f.svc.Generate(context.Background(), report.ID)
		require.Error(t, err)

		stored, err := f.reports.Get(context.Background(), report.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.ReportFailed, stored.Status)
	})
}

func TestGenerateUnknownReport(t *testing.T) {
	f := newFixture(t, formatCSV, nil)
	_, err := f.svc.Generate(context.Background(), 404)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestDownloadIsOneShot(t *testing.T) {
	f := newFixture(t, formatCSV, nil)
	ctx := context.Background()
	restaurant := testutil.Restaurant(t, f.db)
	report := f.pending(t, restaurant.ID, 5, 2024)

	_, err := f.svc.Download(ctx, report.ID)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound), "pending reports are not downloadable")

	key, err := f.svc.Generate(ctx, report.ID)
	require.NoError(t, err)

	dl, err := f.svc.Download(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", dl.ContentType)
	assert.Equal(t, fmt.Sprintf("sales_report_%d_2024_05_%d.csv", restaurant.ID, report.ID), dl.Filename)
	assert.Contains(t, string(dl.Content), "Total Sales")

	_, err = f.store.Open(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Zero(t, testutil.Count(t, f.db, (*entity.SalesReport)(nil)))

	_, err = f.svc.Download(ctx, report.ID)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestReportsOfTheSameMonthKeepSeparateFiles(t *testing.T) {
	f := newFixture(t, formatCSV, nil)
	ctx := context.Background()
	restaurant := testutil.Restaurant(t, f.db)
	f.order(t, restaurant.ID, "12.00", time.Date(2024, time.May, 3, 9, 0, 0, 0, time.UTC))

	first := f.pending(t, restaurant.ID, 5, 2024)
	second := f.pending(t, restaurant.ID, 5, 2024)

	keyA, err := f.svc.Generate(ctx, first.ID)
	require.NoError(t, err)
	keyB, err := f.svc.Generate(ctx, second.ID)
	require.NoError(t, err)
	assert.NotEqual(t, keyA, keyB)

	dlA, err := f.svc.Download(ctx, first.ID)
	require.NoError(t, err)
	dlB, err := f.svc.Download(ctx, second.ID)
	require.NoError(t, err)

	assert.Equal(t, dlA.Content, dlB.Content)
	assert.Contains(t, string(dlB.Content), "12.00")
	assert.Zero(t, testutil.Count(t, f.db, (*entity.SalesReport)(nil)))
}

func TestGenerateMarksReportFailedWhenProcessingCannotBeRecorded(t *testing.T) {
	f := newFixture(t, formatCSV, nil)
	ctx := context.Background()
	restaurant := testutil.Restaurant(t, f.db)
	report := f.pending(t, restaurant.ID, 6, 2024)

	_, err := f.db.ExecContext(ctx, `CREATE TRIGGER block_processing BEFORE UPDATE ON sales_reports
		WHEN NEW.status = 'processing' BEGIN SELECT RAISE(ABORT, 'status locked'); END`)
	require.NoError(t, err)

	_, err = f.svc.Generate(ctx, report.ID)
	require.True(t, errorbank.IsKind(err, errorbank.KindInternal))

	got, err := f.svc.Status(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportFailed, got.Status)
}

func TestRequestQueuesGeneration(t *testing.T) {
	f := newFixture(t, formatCSV, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	restaurant := testutil.Restaurant(t, f.db)

	report, err := f.svc.Request(ctx, RequestInput{RestaurantID: restaurant.ID, Month: 6, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, entity.ReportPending, report.Status)

	received := make(chan worker.Job, 1)
	go func() {
		_ = f.queue.Consume(ctx, func(_ context.Context, msg messaging.Message) error {
			var job worker.Job
			if err := json.Unmarshal(msg.Value, &job); err != nil {
				return err
			}
			received <- job
			return nil
		})
	}()

	select {
	case job := <-received:
		assert.Equal(t, worker.KindReportGeneration, job.Kind)
		var payload GeneratePayload
		require.NoError(t, job.Decode(&payload))
		assert.Equal(t, report.ID, payload.ReportID)
	case <-ctx.Done():
		t.Fatal("generation job was not queued")
	}
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t, formatCSV, nil)
	ctx := context.Background()
	open := testutil.Restaurant(t, f.db)
	closed := testutil.Restaurant(t, f.db)
	testutil.Deactivate(t, f.db, (*entity.Restaurant)(nil), closed.ID)

	cases := map[string]struct {
		in    RequestInput
		field string
	}{
		"month too high":      {RequestInput{RestaurantID: open.ID, Month: 13, Year: 2024}, "month"},
		"missing month":       {RequestInput{RestaurantID: open.ID, Year: 2024}, "month"},
		"year too old":        {RequestInput{RestaurantID: open.ID, Month: 1, Year: 1999}, "year"},
		"inactive restaurant": {RequestInput{RestaurantID: closed.ID, Month: 1, Year: 2024}, "restaurant_id"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Request(ctx, tc.in)
			require.Error(t, err)
			appErr := errorbank.From(err)
			assert.Equal(t, errorbank.KindValidation, appErr.Kind())
			assert.Contains(t, appErr.FieldErrors(), tc.field)
		})
	}
	assert.Zero(t, testutil.Count(t, f.db, (*entity.SalesReport)(nil)))
}
