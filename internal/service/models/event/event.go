package event

import "github.com/shopspring/decimal"

// Queue names the lifecycle events are published to. Delivery is at-least-once;
// consumers must key on orderId + status to stay replay-safe.
const (
	QueueOrderCreated       = "orders.created"
	QueueOrderStatusChanged = "orders.status-changed"
)

// OrderCreated is published once per successfully created order.
type OrderCreated struct {
	OrderID     int64           `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      int64           `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
}

// OrderStatusChanged is published once per successful status transition.
type OrderStatusChanged struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	OldStatus   string `json:"oldStatus"`
	NewStatus   string `json:"newStatus"`
}
