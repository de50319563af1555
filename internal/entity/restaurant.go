package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// RestaurantStatus describes whether a restaurant takes orders.
type RestaurantStatus string

const (
	RestaurantOpen        RestaurantStatus = "open"
	RestaurantClosed      RestaurantStatus = "closed"
	RestaurantMaintenance RestaurantStatus = "maintenance"
)

// Restaurant is a venue that owns menu items and receives orders.
type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants,alias:r"`

	ID        int64            `bun:",pk,autoincrement"`
	Name      string           `bun:"name,notnull"`
	Address   string           `bun:"address,notnull"`
	Rating    decimal.Decimal  `bun:"rating,type:decimal(2,1),notnull"`
	Status    RestaurantStatus `bun:"status,notnull"`
	Category  string           `bun:"category,notnull"`
	Latitude  decimal.Decimal  `bun:"latitude,type:decimal(14,11),notnull"`
	Longitude decimal.Decimal  `bun:"longitude,type:decimal(14,11),notnull"`
	Lifecycle Lifecycle        `bun:"lifecycle,notnull"`
	CreatedAt time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
