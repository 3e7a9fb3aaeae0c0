package orderitem

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem represents a single purchased line within an order. Product data
// is snapshotted at order time and never re-read from the catalog.
type OrderItem struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"orderId"`
	ProductID      int64           `json:"productId"`
	ProductSku     string          `json:"productSku"`
	ProductName    string          `json:"productName"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
