package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemInput is one requested line item. Pointers distinguish missing keys
// from zero values.
type ItemInput struct {
	MenuItemID *int64           `json:"menu_item_id"`
	Quantity   *int             `json:"quantity"`
	Subtotal   *decimal.Decimal `json:"subtotal"`
	Note       *string          `json:"note"`
}

// CreateInput carries an order placement request. An initial status is
// never accepted; new orders always start pending.
type CreateInput struct {
	CustomerID            int64            `json:"customer_id" validate:"required,gt=0"`
	RestaurantID          int64            `json:"restaurant_id" validate:"required,gt=0"`
	TotalAmount           *decimal.Decimal `json:"total_amount"`
	Items                 []ItemInput      `json:"items"`
	DeliveryAddress       *string          `json:"delivery_address" validate:"omitempty,max=255"`
	SpecialInstructions   *string          `json:"special_instructions"`
	EstimatedDeliveryTime *time.Time       `json:"estimated_delivery_time"`
}

// UpdateInput holds the fields of a partial update. Nil fields are left as is.
type UpdateInput struct {
	Status                *string    `json:"status"`
	DeliveryAddress       *string    `json:"delivery_address" validate:"omitempty,max=255"`
	SpecialInstructions   *string    `json:"special_instructions"`
	EstimatedDeliveryTime *time.Time `json:"estimated_delivery_time"`
}

// ListInput filters and paginates an order listing.
type ListInput struct {
	CustomerID   *int64           `json:"customer_id,omitempty"`
	RestaurantID *int64           `json:"restaurant_id,omitempty"`
	MenuItemID   *int64           `json:"menu_item_id,omitempty"`
	Status       *string          `json:"status,omitempty"`
	MinAmount    *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount    *decimal.Decimal `json:"max_amount,omitempty"`
	CreatedFrom  *time.Time       `json:"created_from,omitempty"`
	CreatedTo    *time.Time       `json:"created_to,omitempty"`
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (in *ListInput) normalize() {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.PageSize < 1 {
		in.PageSize = defaultPageSize
	}
	if in.PageSize > maxPageSize {
		in.PageSize = maxPageSize
	}
}
