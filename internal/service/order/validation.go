package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/entity"
	restaurantrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	userrepo "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/user"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/validation"
	"github.com/SilkenBread/restaurant-ordering-backend/pkg/errorbank"
)

type fieldErrors map[string][]string

func (f fieldErrors) add(field, format string, args ...any) {
	f[field] = append(f[field], fmt.Sprintf(format, args...))
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return errorbank.Validation(message, errorbank.WithFieldErrors(f))
}

func itemField(i int, name string) string {
	return fmt.Sprintf("items[%d].%s", i, name)
}

// checkShape validates the request on its own, without touching storage.
func (s *Service) checkShape(in CreateInput) error {
	errs := fieldErrors(validation.FieldErrors(s.validate.Struct(in)))
	if errs == nil {
		errs = fieldErrors{}
	}

	if len(in.Items) == 0 {
		errs.add("items", "at least one item is required")
	}
	sum := decimal.Zero
	for i, item := range in.Items {
		if item.MenuItemID == nil {
			errs.add(itemField(i, "menu_item_id"), "this field is required")
		}
		switch {
		case item.Quantity == nil:
			errs.add(itemField(i, "quantity"), "this field is required")
		case *item.Quantity <= 0:
			errs.add(itemField(i, "quantity"), "must be greater than zero")
		}
		switch {
		case item.Subtotal == nil:
			errs.add(itemField(i, "subtotal"), "this field is required")
		case !item.Subtotal.IsPositive():
			errs.add(itemField(i, "subtotal"), "must be greater than zero")
		default:
			sum = sum.Add(*item.Subtotal)
		}
	}

	switch {
	case in.TotalAmount == nil:
		errs.add("total_amount", "this field is required")
	case !in.TotalAmount.IsPositive():
		errs.add("total_amount", "must be greater than zero")
	case len(errs) == 0 && !in.TotalAmount.Equal(sum):
		errs.add("total_amount", "must equal the sum of item subtotals (%s)", sum.StringFixed(2))
	}

	return errs.err("invalid order")
}

// checkReferences verifies that the customer, restaurant and menu items exist,
// are active and belong together.
func (s *Service) checkReferences(ctx context.Context, in CreateInput) error {
	errs := fieldErrors{}

	if _, err := s.users.GetActive(ctx, in.CustomerID); err != nil {
		if !errors.Is(err, userrepo.ErrNotFound) {
			return errorbank.Internal("failed to load customer", errorbank.WithCause(err))
		}
		errs.add("customer_id", "customer does not exist or is inactive")
	}
	if _, err := s.restaurants.GetActive(ctx, in.RestaurantID); err != nil {
		if !errors.Is(err, restaurantrepo.ErrNotFound) {
			return errorbank.Internal("failed to load restaurant", errorbank.WithCause(err))
		}
		errs.add("restaurant_id", "restaurant does not exist or is inactive")
	}

	ids := make([]int64, 0, len(in.Items))
	for _, item := range in.Items {
		ids = append(ids, *item.MenuItemID)
	}
	menu, err := s.menu.ActiveByIDs(ctx, ids)
	if err != nil {
		return errorbank.Internal("failed to load menu items", errorbank.WithCause(err))
	}
	for i, item := range in.Items {
		mi, ok := menu[*item.MenuItemID]
		switch {
		case !ok:
			errs.add(itemField(i, "menu_item_id"), "menu item %d does not exist or is inactive", *item.MenuItemID)
		case mi.RestaurantID != in.RestaurantID:
			errs.add(itemField(i, "menu_item_id"), "menu item %d does not belong to restaurant %d", mi.ID, in.RestaurantID)
		case !mi.IsAvailable:
			errs.add(itemField(i, "menu_item_id"), "menu item %d is not available", mi.ID)
		}
	}

	return errs.err("invalid order")
}

// checkUpdate validates the fields present in a partial update and returns the
// columns to write.
func (s *Service) checkUpdate(order *entity.Order, in UpdateInput) ([]string, error) {
	errs := fieldErrors(validation.FieldErrors(s.validate.Struct(in)))
	if errs == nil {
		errs = fieldErrors{}
	}

	var columns []string
	if in.Status != nil {
		status := entity.OrderStatus(*in.Status)
		if status.Valid() {
			order.Status = status
			columns = append(columns, "status")
		} else {
			errs.add("status", "%q is not a valid choice; use pending, completed or cancelled", *in.Status)
		}
	}
	if in.DeliveryAddress != nil {
		order.DeliveryAddress = in.DeliveryAddress
		columns = append(columns, "delivery_address")
	}
	if in.SpecialInstructions != nil {
		order.SpecialInstructions = in.SpecialInstructions
		columns = append(columns, "special_instructions")
	}
	if in.EstimatedDeliveryTime != nil {
		t := in.EstimatedDeliveryTime.UTC()
		order.EstimatedDeliveryTime = &t
		columns = append(columns, "estimated_delivery_time")
	}

	if err := errs.err("invalid order update"); err != nil {
		return nil, err
	}
	return columns, nil
}
