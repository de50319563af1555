package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Order represents a customer order stored in the relational database.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID                    int64           `bun:",pk,autoincrement"`
	CustomerID            int64           `bun:"customer_id,notnull"`
	RestaurantID          int64           `bun:"restaurant_id,notnull"`
	Status                OrderStatus     `bun:"status,notnull"`
	TotalAmount           decimal.Decimal `bun:"total_amount,type:decimal(10,2),notnull"`
	DeliveryAddress       *string         `bun:"delivery_address"`
	SpecialInstructions   *string         `bun:"special_instructions"`
	EstimatedDeliveryTime *time.Time      `bun:"estimated_delivery_time"`
	Lifecycle             Lifecycle       `bun:"lifecycle,notnull"`
	CreatedAt             time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt             time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id"`
}

// OrderItem is one menu item line within an order.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID         int64           `bun:",pk,autoincrement"`
	OrderID    int64           `bun:"order_id,notnull"`
	MenuItemID int64           `bun:"menu_item_id,notnull"`
	Quantity   int             `bun:"quantity,notnull"`
	Subtotal   decimal.Decimal `bun:"subtotal,type:decimal(10,2),notnull"`
	Note       *string         `bun:"note"`
	Lifecycle  Lifecycle       `bun:"lifecycle,notnull"`
	CreatedAt  time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
