package getorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ecomcore/order/internal/service/models/order"
	"github.com/ecomcore/order/internal/transport/http/httperr"
)

type service interface {
	GetOrderByID(ctx context.Context, id int64) (*order.Order, error)
	GetOrderByOrderNumber(ctx context.Context, number string) (*order.Order, error)
}

// GetByID handles fetching one order by its numeric id.
func GetByID(w http.ResponseWriter, r *http.Request, service service) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		slog.Error("Error parsing order id", "error", err)

		return
	}

	o, err := service.GetOrderByID(r.Context(), id)
	if err != nil {
		httperr.Respond(w, err, "Error getting order by id")

		return
	}

	writeOrder(w, o)
}

// GetByOrderNumber handles fetching one order by its order number.
func GetByOrderNumber(w http.ResponseWriter, r *http.Request, service service) {
	number := chi.URLParam(r, "orderNumber")

	o, err := service.GetOrderByOrderNumber(r.Context(), number)
	if err != nil {
		httperr.Respond(w, err, "Error getting order by order number")

		return
	}

	writeOrder(w, o)
}

func writeOrder(w http.ResponseWriter, o *order.Order) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(o); err != nil {
		slog.Error("Error sending order response", "error", err)
	}
}
