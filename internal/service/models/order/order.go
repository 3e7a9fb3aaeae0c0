package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecomcore/order/internal/service/models/money"
	"github.com/ecomcore/order/internal/service/models/orderitem"
	"github.com/ecomcore/order/internal/service/models/statushistory"
)

const (
	// PaymentStatusPending is the payment status assigned at creation.
	PaymentStatusPending = "PENDING"

	// ActorSystem is the audit actor for system-initiated changes.
	ActorSystem = "SYSTEM"

	// ActorUser is the default audit actor for user-initiated cancellations.
	ActorUser = "USER"
)

// Order is the aggregate root. It exclusively owns its items and status
// history; both collections are ordered and the history is append-only.
type Order struct {
	ID                 int64                 `json:"id"`
	OrderNumber        string                `json:"orderNumber"`
	UserID             int64                 `json:"userId"`
	UserEmail          string                `json:"userEmail"`
	Status             Status                `json:"status"`
	Subtotal           decimal.Decimal       `json:"subtotal"`
	TaxAmount          decimal.Decimal       `json:"taxAmount"`
	ShippingAmount     decimal.Decimal       `json:"shippingAmount"`
	DiscountAmount     decimal.Decimal       `json:"discountAmount"`
	TotalAmount        decimal.Decimal       `json:"totalAmount"`
	PaymentMethod      string                `json:"paymentMethod"`
	PaymentStatus      string                `json:"paymentStatus"`
	ShippingAddress    ShippingAddress       `json:"shippingAddress"`
	Notes              string                `json:"notes"`
	TrackingNumber     string                `json:"trackingNumber,omitempty"`
	ShippedAt          *time.Time            `json:"shippedAt,omitempty"`
	DeliveredAt        *time.Time            `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time            `json:"cancelledAt,omitempty"`
	CancellationReason string                `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
	Items              []orderitem.OrderItem `json:"items"`
	StatusHistory      []statushistory.Entry `json:"statusHistory"`
}

// ShippingAddress holds the destination address. Line2 may be empty.
type ShippingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

func (a ShippingAddress) validate() error {
	required := []struct {
		field string
		value string
	}{
		{"shippingAddressLine1", a.Line1},
		{"shippingCity", a.City},
		{"shippingState", a.State},
		{"shippingCountry", a.Country},
		{"shippingPostalCode", a.PostalCode},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, r.field)
		}
	}

	return nil
}

// ItemParams is one requested order line.
type ItemParams struct {
	ProductID      int64
	ProductSku     string
	ProductName    string
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
}

func (p ItemParams) validate() error {
	if p.ProductID <= 0 {
		return fmt.Errorf("%w: productId is required", ErrValidation)
	}
	if p.ProductSku == "" {
		return fmt.Errorf("%w: productSku is required", ErrValidation)
	}
	if p.ProductName == "" {
		return fmt.Errorf("%w: productName is required", ErrValidation)
	}
	if p.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if !p.UnitPrice.IsPositive() {
		return fmt.Errorf("%w: unitPrice must be greater than 0", ErrValidation)
	}
	if err := money.RequireNonNegative("discountAmount", p.DiscountAmount); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := money.RequireNonNegative("taxAmount", p.TaxAmount); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return nil
}

// CreateOrderParams is the input for constructing a new order aggregate.
type CreateOrderParams struct {
	UserID          int64
	UserEmail       string
	Items           []ItemParams
	PaymentMethod   string
	ShippingAddress ShippingAddress
	Notes           string
}

func (p CreateOrderParams) validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if p.UserEmail == "" {
		return fmt.Errorf("%w: userEmail is required", ErrValidation)
	}
	if p.PaymentMethod == "" {
		return fmt.Errorf("%w: paymentMethod is required", ErrValidation)
	}
	if len(p.Items) == 0 {
		return fmt.Errorf("%w: order must have at least one item", ErrValidation)
	}
	if err := p.ShippingAddress.validate(); err != nil {
		return err
	}
	for i, item := range p.Items {
		if err := item.validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}

	return nil
}

// New constructs an order aggregate from creation parameters. Construction is
// all-or-nothing: any invalid field rejects the whole order. Totals are
// derived from the items; the shipping amount starts at zero since rate
// computation lives outside this service.
func New(params CreateOrderParams, orderNumber string, now time.Time) (*Order, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	o := &Order{
		OrderNumber:     orderNumber,
		UserID:          params.UserID,
		UserEmail:       params.UserEmail,
		Status:          StatusPending,
		ShippingAmount:  money.Zero(),
		PaymentMethod:   params.PaymentMethod,
		PaymentStatus:   PaymentStatusPending,
		ShippingAddress: params.ShippingAddress,
		Notes:           params.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           make([]orderitem.OrderItem, 0, len(params.Items)),
	}

	subtotal := money.Zero()
	totalTax := money.Zero()
	totalDiscount := money.Zero()

	for _, req := range params.Items {
		item := orderitem.OrderItem{
			ProductID:      req.ProductID,
			ProductSku:     req.ProductSku,
			ProductName:    req.ProductName,
			Quantity:       req.Quantity,
			UnitPrice:      req.UnitPrice,
			DiscountAmount: req.DiscountAmount,
			TaxAmount:      req.TaxAmount,
			TotalPrice:     money.LineTotal(req.UnitPrice, req.Quantity, req.DiscountAmount, req.TaxAmount),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		o.Items = append(o.Items, item)

		subtotal = subtotal.Add(req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))))
		totalTax = totalTax.Add(req.TaxAmount)
		totalDiscount = totalDiscount.Add(req.DiscountAmount)
	}

	o.Subtotal = subtotal
	o.TaxAmount = totalTax
	o.DiscountAmount = totalDiscount

	total, err := money.OrderTotal(subtotal, totalDiscount, totalTax, o.ShippingAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	o.TotalAmount = total

	o.appendHistory(StatusPending, "Order created", ActorSystem, now)

	return o, nil
}

// ApplyStatus transitions the order to newStatus, derives the status-specific
// side effects and appends the audit entry. Lifecycle timestamps are set only
// on first entry into a state, so a replayed transition never overwrites the
// original time.
func (o *Order) ApplyStatus(newStatus Status, notes, changedBy string, now time.Time) error {
	if !o.Status.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, newStatus)
	}

	o.Status = newStatus
	o.UpdatedAt = now

	switch newStatus {
	case StatusShipped:
		if o.ShippedAt == nil {
			t := now
			o.ShippedAt = &t
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			t := now
			o.DeliveredAt = &t
		}
	case StatusCancelled:
		if o.CancelledAt == nil {
			t := now
			o.CancelledAt = &t
		}
		o.CancellationReason = notes
	}

	o.appendHistory(newStatus, notes, changedBy, now)

	return nil
}

func (o *Order) appendHistory(status Status, notes, changedBy string, now time.Time) {
	o.StatusHistory = append(o.StatusHistory, statushistory.Entry{
		OrderID:   o.ID,
		Status:    status.String(),
		Notes:     notes,
		ChangedBy: changedBy,
		CreatedAt: now,
	})
}
