package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
)

// OrderItemResponse is one line item as exposed via transport layers.
type OrderItemResponse struct {
	ID         int64           `json:"id"`
	MenuItemID int64           `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Note       *string         `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                    int64               `json:"id"`
	CustomerID            int64               `json:"customer_id"`
	RestaurantID          int64               `json:"restaurant_id"`
	Status                string              `json:"status"`
	TotalAmount           decimal.Decimal     `json:"total_amount"`
	DeliveryAddress       *string             `json:"delivery_address,omitempty"`
	SpecialInstructions   *string             `json:"special_instructions,omitempty"`
	EstimatedDeliveryTime *time.Time          `json:"estimated_delivery_time,omitempty"`
	Items                 []OrderItemResponse `json:"order_items"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Results  []OrderResponse `json:"results"`
	Count    int             `json:"count"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// NewOrderResponse maps an order and its loaded items.
func NewOrderResponse(order *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:                    order.ID,
		CustomerID:            order.CustomerID,
		RestaurantID:          order.RestaurantID,
		Status:                string(order.Status),
		TotalAmount:           order.TotalAmount,
		DeliveryAddress:       order.DeliveryAddress,
		SpecialInstructions:   order.SpecialInstructions,
		EstimatedDeliveryTime: order.EstimatedDeliveryTime,
		Items:                 make([]OrderItemResponse, 0, len(order.Items)),
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Subtotal:   item.Subtotal,
			Note:       item.Note,
			CreatedAt:  item.CreatedAt,
		})
	}
	return resp
}
