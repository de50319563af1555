// Package testutil builds throwaway SQLite databases and fixtures for package tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/database"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
)

var seq atomic.Int64

// OpenDB opens an empty in-memory SQLite database.
func OpenDB(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewDB opens an in-memory SQLite database with every table created.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()

	db := OpenDB(t)
	ctx := context.Background()
	models := []any{
		(*entity.Restaurant)(nil),
		(*entity.MenuItem)(nil),
		(*entity.User)(nil),
		(*entity.Order)(nil),
		(*entity.OrderItem)(nil),
		(*entity.SalesReport)(nil),
	}
	for _, model := range models {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

// Connections wraps db as both writer and reader.
func Connections(db *bun.DB) *database.Connections {
	return database.Single(db)
}

// Restaurant inserts an active, open restaurant.
func Restaurant(t testing.TB, db *bun.DB) *entity.Restaurant {
	t.Helper()
	r := &entity.Restaurant{
		Name:      fmt.Sprintf("Restaurant %d", seq.Add(1)),
		Address:   "Calle 5 #38-25",
		Rating:    decimal.RequireFromString("4.5"),
		Status:    entity.RestaurantOpen,
		Category:  "colombian",
		Latitude:  decimal.RequireFromString("3.42158"),
		Longitude: decimal.RequireFromString("-76.5205"),
		Lifecycle: entity.LifecycleActive,
	}
	_, err := db.NewInsert().Model(r).Exec(context.Background())
	require.NoError(t, err)
	return r
}

// MenuItem inserts an active menu item for restaurantID.
func MenuItem(t testing.TB, db *bun.DB, restaurantID int64, price string) *entity.MenuItem {
	t.Helper()
	item := &entity.MenuItem{
		RestaurantID:    restaurantID,
		Name:            fmt.Sprintf("Dish %d", seq.Add(1)),
		Description:     "house special",
		Price:           decimal.RequireFromString(price),
		PreparationTime: 15,
		Category:        "main",
		IsAvailable:     true,
		Lifecycle:       entity.LifecycleActive,
	}
	_, err := db.NewInsert().Model(item).Exec(context.Background())
	require.NoError(t, err)
	return item
}

// Customer inserts an active user with the given email.
func Customer(t testing.TB, db *bun.DB, email string) *entity.User {
	t.Helper()
	u := &entity.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Ana",
		LastName:     "Gomez",
		Phone:        "3001234567",
		Lifecycle:    entity.LifecycleActive,
	}
	_, err := db.NewInsert().Model(u).Exec(context.Background())
	require.NoError(t, err)
	return u
}

// Deactivate flips a row of model's table to inactive.
func Deactivate(t testing.TB, db *bun.DB, model any, id int64) {
	t.Helper()
	_, err := db.NewUpdate().Model(model).
		Set("lifecycle = ?", entity.LifecycleInactive).
		Where("id = ?", id).
		Exec(context.Background())
	require.NoError(t, err)
}

// Count returns the number of rows of model's table matching an optional condition.
func Count(t testing.TB, db *bun.DB, model any, where ...any) int {
	t.Helper()
	q := db.NewSelect().Model(model)
	if len(where) > 0 {
		q = q.Where(where[0].(string), where[1:]...)
	}
	n, err := q.Count(context.Background())
	require.NoError(t, err)
	return n
}
