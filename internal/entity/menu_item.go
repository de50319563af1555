package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// MenuItem is a dish offered by a restaurant.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID              int64           `bun:",pk,autoincrement"`
	RestaurantID    int64           `bun:"restaurant_id,notnull"`
	Name            string          `bun:"name,notnull"`
	Description     string          `bun:"description,notnull"`
	Price           decimal.Decimal `bun:"price,type:decimal(10,2),notnull"`
	PreparationTime int             `bun:"preparation_time,notnull"`
	Category        string          `bun:"category,notnull"`
	IsAvailable     bool            `bun:"is_available,notnull"`
	Lifecycle       Lifecycle       `bun:"lifecycle,notnull"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
