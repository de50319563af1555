package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
	menurepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/menu"
	restaurantrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	userrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/user"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/testutil"
)

func TestRunIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	conns := testutil.Connections(db)
	s := New(
		restaurantrepo.NewRepository(conns),
		menurepo.NewRepository(conns),
		userrepo.NewRepository(conns),
		config.Config{Security: config.Security{BcryptCost: bcrypt.MinCost}},
		zaptest.NewLogger(t),
	)

	ctx := context.Background()
	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Run(ctx))

	dishes := 0
	for _, v := range venues {
		dishes += len(v.menu)
	}
	assert.Equal(t, len(venues), testutil.Count(t, db, (*entity.Restaurant)(nil)))
	assert.Equal(t, dishes, testutil.Count(t, db, (*entity.MenuItem)(nil)))
	assert.Equal(t, 1, testutil.Count(t, db, (*entity.User)(nil), "email = ?", DemoCustomerEmail))
}
