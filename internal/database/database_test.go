package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
)

func sqliteConfig() config.Config {
	var cfg config.Config
	cfg.Database = config.Database{
		Driver:    driverSQLite,
		WriterDSN: "file::memory:?cache=shared",
		ReaderDSN: "file::memory:?cache=shared",
	}
	return cfg
}

func TestNewSQLiteSharesOnePool(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	conns, err := New(lc, sqliteConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	lc.RequireStart()
	defer lc.RequireStop()

	assert.Same(t, conns.Writer, conns.Reader)
	assert.Equal(t, 1, conns.Writer.Stats().MaxOpenConnections)

	var enabled int
	require.NoError(t, conns.Writer.NewRaw("PRAGMA foreign_keys").Scan(context.Background(), &enabled))
	assert.Equal(t, 1, enabled)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Database.Driver = "oracle"

	_, err := New(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Database.WriterDSN = ""

	_, err := New(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "empty DSN")
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := sqliteConfig()
	cfg.Database.SlowQuery = time.Nanosecond

	db, err := open(cfg.Database, cfg.Database.WriterDSN, zap.New(core))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.ExecContext(ctx, "SELECT 1")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "SELECT * FROM missing_table")
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage("slow query").Len())
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())
}
