package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
	menurepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/menu"
	restaurantrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	userrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/user"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// DemoCustomerEmail identifies the seeded customer account.
const DemoCustomerEmail = "demo.customer@example.com"

const demoPassword = "demo-password"

type dish struct {
	name     string
	price    string
	minutes  int
	category string
}

type venue struct {
	name     string
	address  string
	category string
	rating   string
	lat, lng string
	menu     []dish
}

var venues = []venue{
	{
		name: "La Cocina de Rosa", address: "Calle 9 #40-12", category: "colombian", rating: "4.6",
		lat: "3.42158", lng: "-76.52050",
		menu: []dish{
			{"Bandeja Paisa", "32000.00", 25, "main"},
			{"Ajiaco", "28000.00", 30, "soup"},
			{"Limonada de Coco", "9000.00", 5, "drink"},
		},
	},
	{
		name: "Trattoria Nonna", address: "Avenida 6N #23-50", category: "italian", rating: "4.3",
		lat: "3.46041", lng: "-76.53225",
		menu: []dish{
			{"Lasagna", "35000.00", 35, "main"},
			{"Tiramisu", "14000.00", 10, "dessert"},
		},
	},
}

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	restaurants *restaurantrepo.Repository
	menu        *menurepo.Repository
	users       *userrepo.Repository
	bcryptCost  int
	logger      *zap.Logger
}

// New constructs a Seeder on top of the catalog repositories.
func New(restaurants *restaurantrepo.Repository, menu *menurepo.Repository, users *userrepo.Repository, cfg config.Config, logger *zap.Logger) *Seeder {
	return &Seeder{
		restaurants: restaurants,
		menu:        menu,
		users:       users,
		bcryptCost:  cfg.Security.BcryptCost,
		logger:      logger,
	}
}

// Run seeds demo restaurants with their menus and a demo customer. Records
// that already exist are left untouched, so running it twice is harmless.
func (s *Seeder) Run(ctx context.Context) error {
	created := 0
	for _, v := range venues {
		ok, err := s.venue(ctx, v)
		if err != nil {
			return fmt.Errorf("seed %s: %w", v.name, err)
		}
		if ok {
			created++
		}
	}

	customer, err := s.customer(ctx)
	if err != nil {
		return fmt.Errorf("seed demo customer: %w", err)
	}

	s.logger.Info("seed data applied", zap.Int("restaurants_created", created), zap.Bool("customer_created", customer))
	return nil
}

func (s *Seeder) venue(ctx context.Context, v venue) (bool, error) {
	_, err := s.restaurants.GetByName(ctx, v.name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, restaurantrepo.ErrNotFound) {
		return false, err
	}

	restaurant := &entity.Restaurant{
		Name:      v.name,
		Address:   v.address,
		Rating:    decimal.RequireFromString(v.rating),
		Status:    entity.RestaurantOpen,
		Category:  v.category,
		Latitude:  decimal.RequireFromString(v.lat),
		Longitude: decimal.RequireFromString(v.lng),
		Lifecycle: entity.LifecycleActive,
	}
	if err := s.restaurants.Create(ctx, restaurant); err != nil {
		return false, err
	}
	for _, d := range v.menu {
		item := &entity.MenuItem{
			RestaurantID:    restaurant.ID,
			Name:            d.name,
			Description:     d.name + " de la casa",
			Price:           decimal.RequireFromString(d.price),
			PreparationTime: d.minutes,
			Category:        d.category,
			IsAvailable:     true,
			Lifecycle:       entity.LifecycleActive,
		}
		if err := s.menu.Create(ctx, item); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Seeder) customer(ctx context.Context) (bool, error) {
	emails, err := s.users.Emails(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := emails[strings.ToLower(DemoCustomerEmail)]; ok {
		return false, nil
	}

	cost := s.bcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), cost)
	if err != nil {
		return false, err
	}
	return true, s.users.Create(ctx, &entity.User{
		Email:        DemoCustomerEmail,
		PasswordHash: string(hash),
		FirstName:    "Demo",
		LastName:     "Customer",
		Phone:        "3000000000",
		Lifecycle:    entity.LifecycleActive,
	})
}
