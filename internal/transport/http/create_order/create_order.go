package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ecomcore/order/internal/service/models/order"
	"github.com/ecomcore/order/internal/transport/http/httperr"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, params order.CreateOrderParams) (*order.Order, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID      int64           `json:"productId"      validate:"gt=0"`
	ProductSku     string          `json:"productSku"     validate:"required"`
	ProductName    string          `json:"productName"    validate:"required"`
	Quantity       int             `json:"quantity"       validate:"gte=1"`
	UnitPrice      decimal.Decimal `json:"unitPrice"      validate:"required"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	UserID               int64                      `json:"userId"               validate:"gt=0"`
	UserEmail            string                     `json:"userEmail"            validate:"required,email"`
	Items                []itemInCreateOrderRequest `json:"items"                validate:"required,min=1,dive"`
	PaymentMethod        string                     `json:"paymentMethod"        validate:"required"`
	ShippingAddressLine1 string                     `json:"shippingAddressLine1" validate:"required"`
	ShippingAddressLine2 string                     `json:"shippingAddressLine2"`
	ShippingCity         string                     `json:"shippingCity"         validate:"required"`
	ShippingState        string                     `json:"shippingState"        validate:"required"`
	ShippingCountry      string                     `json:"shippingCountry"      validate:"required"`
	ShippingPostalCode   string                     `json:"shippingPostalCode"   validate:"required"`
	Notes                string                     `json:"notes"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// toParams converts createOrderRequest to order.CreateOrderParams.
func (r *createOrderRequest) toParams() order.CreateOrderParams {
	items := make([]order.ItemParams, len(r.Items))
	for i, item := range r.Items {
		items[i] = order.ItemParams{
			ProductID:      item.ProductID,
			ProductSku:     item.ProductSku,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
			TaxAmount:      item.TaxAmount,
		}
	}

	return order.CreateOrderParams{
		UserID:        r.UserID,
		UserEmail:     r.UserEmail,
		Items:         items,
		PaymentMethod: r.PaymentMethod,
		ShippingAddress: order.ShippingAddress{
			Line1:      r.ShippingAddressLine1,
			Line2:      r.ShippingAddressLine2,
			City:       r.ShippingCity,
			State:      r.ShippingState,
			Country:    r.ShippingCountry,
			PostalCode: r.ShippingPostalCode,
		},
		Notes: r.Notes,
	}
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	created, err := service.CreateOrder(r.Context(), req.toParams())
	if err != nil {
		httperr.Respond(w, err, "Error creating order")

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		slog.Error("Error sending response for create order", "error", err)
	}
}
