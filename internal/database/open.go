package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
)

const (
	driverPostgres = "postgres"
	driverMySQL    = "mysql"
	driverSQLite   = "sqlite"
)

func open(cfg config.Database, dsn string, logger *zap.Logger) (*bun.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}

	var (
		sqlDB *sql.DB
		dial  schema.Dialect
		err   error
	)
	switch cfg.Driver {
	case driverPostgres:
		sqlDB, dial = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), pgdialect.New()
	case driverMySQL:
		sqlDB, err = sql.Open("mysql", dsn)
		dial = mysqldialect.New()
	case driverSQLite:
		sqlDB, err = sql.Open(sqliteshim.ShimName, dsn)
		dial = sqlitedialect.New()
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	tune(sqlDB, cfg)
	if cfg.Driver == driverSQLite {
		if _, err := sqlDB.ExecContext(context.Background(), "PRAGMA foreign_keys = ON"); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	db := bun.NewDB(sqlDB, dial)
	db.AddQueryHook(newQueryLogger(logger, cfg.SlowQuery))
	return db, nil
}

func tune(db *sql.DB, cfg config.Database) {
	if cfg.Driver == driverSQLite {
		// in-memory databases live per connection, and sqlite takes one writer at a time
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
}
