package cancelorder

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
	CancelOrder(ctx context.Context, id int64, reason string, cancelledBy string) (*order.Order, error)
}

type cancelOrderRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelledBy"`
}

// CancelOrder cancels an order, recording who requested it and why.
func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		slog.Error("Error parsing order id", "error", err)

		return
	}

	req := cancelOrderRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			slog.Error("Error decoding request body for cancel order", "error", err)

			return
		}
	}

	cancelled, err := service.CancelOrder(r.Context(), id, req.Reason, req.CancelledBy)
	if err != nil {
		httperr.Respond(w, err, "Error cancelling order")

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cancelled); err != nil {
		slog.Error("Error sending response for cancel order", "error", err)
	}
}
