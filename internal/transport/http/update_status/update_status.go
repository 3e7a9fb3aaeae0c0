package updatestatus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ecomcore/order/internal/service/models/order"
	"github.com/ecomcore/order/internal/transport/http/httperr"
)

type service interface {
	UpdateOrderStatus(
		ctx context.Context,
		id int64,
		newStatus order.Status,
		notes string,
		changedBy string,
	) (*order.Order, error)
}

// updateStatusRequest represents a status transition request.
type updateStatusRequest struct {
	Status    string `json:"status"    validate:"required"`
	Notes     string `json:"notes"`
	ChangedBy string `json:"changedBy"`
}

// UpdateStatus handles the status transition request.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		slog.Error("Error parsing order id", "error", err)

		return
	}

	req := updateStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for update status", "error", err)

		return
	}

	if err := validator.New().Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for update status", "error", err)

		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		httperr.Respond(w, err, "Error parsing status")

		return
	}

	updated, err := service.UpdateOrderStatus(r.Context(), id, status, req.Notes, req.ChangedBy)
	if err != nil {
		httperr.Respond(w, err, "Error updating order status")

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		slog.Error("Error sending response for update status", "error", err)
	}
}
