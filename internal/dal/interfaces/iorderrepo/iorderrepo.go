package iorderrepo

import (
	"context"

	"github.com/ecomcore/order/internal/service/models/order"
)

// IOrderRepository is an interface for the order postgres repository.
type IOrderRepository interface {
	// Insert persists a new order row and returns it with the assigned id.
	// A colliding order number surfaces as order.ErrDuplicateOrderNumber.
	Insert(ctx context.Context, o order.Order) (*order.Order, error)

	// Update persists the mutable part of an order row (status, lifecycle
	// timestamps, cancellation reason, tracking number).
	Update(ctx context.Context, o order.Order) error

	// GetByID loads one order row, order.ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*order.Order, error)

	// GetByIDForUpdate loads one order row with a row lock held for the
	// span of the surrounding transaction. Serializes concurrent
	// transitions on the same order.
	GetByIDForUpdate(ctx context.Context, id int64) (*order.Order, error)

	// GetByOrderNumber loads one order row, order.ErrNotFound if absent.
	GetByOrderNumber(ctx context.Context, number string) (*order.Order, error)

	// Query retrieves order rows matching the filter.
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
}
