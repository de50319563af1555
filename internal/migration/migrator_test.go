package migration

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/SilkenBread/restaurant-ordering-backend/db/migrations"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/testutil"
)

func TestGooseDialect(t *testing.T) {
	cases := map[string]string{"postgres": "postgres", "pg": "postgres", "mysql": "mysql", "sqlite": "sqlite3"}
	for driver, want := range cases {
		got, err := gooseDialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}

func TestEveryDialectHasTheSameMigrations(t *testing.T) {
	want := []string{"00001_create_catalog.sql", "00002_create_orders.sql", "00003_create_sales_reports.sql"}

	for _, dialect := range []string{"postgres", "mysql", "sqlite3"} {
		t.Run(dialect, func(t *testing.T) {
			dir, err := migrations.Dir(dialect)
			require.NoError(t, err)

			entries, err := fs.ReadDir(migrations.FS, dir)
			require.NoError(t, err)
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			assert.Equal(t, want, names)
		})
	}

	_, err := migrations.Dir("mssql")
	assert.Error(t, err)
}

func TestUpOnSQLiteAssignsIDs(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)

	var cfg config.Config
	cfg.Database.Driver = "sqlite"
	m, err := New(cfg, testutil.Connections(db), zaptest.NewLogger(t))
	require.NoError(t, err)

	version, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	first := testutil.Restaurant(t, db)
	second := testutil.Restaurant(t, db)
	assert.Positive(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	item := testutil.MenuItem(t, db, first.ID, "12.50")
	assert.Positive(t, item.ID)

	version, err = m.Down(ctx, 0, true)
	require.NoError(t, err)
	assert.Zero(t, version)
}
