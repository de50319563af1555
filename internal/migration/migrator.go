package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SilkenBread/restaurant-ordering-backend/db/migrations"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/database"
)

// Module provides the Migrator to Fx.
var Module = fx.Provide(New)

// Migrator applies the embedded schema migrations with goose.
type Migrator struct {
	db     *bun.DB
	dir    string
	logger *zap.Logger
}

// New constructs a goose-backed migrator reading the embedded migrations of
// the configured driver's dialect.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	dir, err := migrations.Dir(dialect)
	if err != nil {
		return nil, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(zap.NewStdLog(logger.Named("goose")))

	return &Migrator{db: conns.Writer, dir: dir, logger: logger}, nil
}

// Up applies all pending migrations and reports the resulting schema version.
func (m *Migrator) Up(ctx context.Context) (int64, error) {
	if err := goose.UpContext(ctx, m.db.DB, m.dir); err != nil && !isNoMigrationErr(err) {
		return 0, err
	}
	version, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	m.logger.Info("schema migrated", zap.Int64("version", version))
	return version, nil
}

// Down rolls back migrations. Steps <= 0 rolls back one; all rolls back every
// applied migration.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) (int64, error) {
	switch {
	case all:
		if err := goose.DownToContext(ctx, m.db.DB, m.dir, 0); err != nil && !isNoMigrationErr(err) {
			return 0, err
		}
	default:
		if steps <= 0 {
			steps = 1
		}
		for i := 0; i < steps; i++ {
			err := goose.DownContext(ctx, m.db.DB, m.dir)
			if isNoMigrationErr(err) {
				break
			}
			if err != nil {
				return 0, err
			}
		}
	}

	version, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	m.logger.Info("schema rolled back", zap.Int64("version", version), zap.Bool("all", all))
	return version, nil
}

// Version returns the currently applied schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, m.db.DB)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}
	return strings.Contains(err.Error(), "no migrations")
}
