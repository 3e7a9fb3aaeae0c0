package updatetracking

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
	UpdateTrackingNumber(ctx context.Context, id int64, trackingNumber string) (*order.Order, error)
}

type updateTrackingRequest struct {
	TrackingNumber string `json:"trackingNumber" validate:"required"`
}

// UpdateTracking sets the carrier tracking number on an order.
func UpdateTracking(w http.ResponseWriter, r *http.Request, service service) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		slog.Error("Error parsing order id", "error", err)

		return
	}

	req := updateTrackingRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for update tracking", "error", err)

		return
	}

	if err := validator.New().Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for update tracking", "error", err)

		return
	}

	updated, err := service.UpdateTrackingNumber(r.Context(), id, req.TrackingNumber)
	if err != nil {
		httperr.Respond(w, err, "Error updating tracking number")

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		slog.Error("Error sending response for update tracking", "error", err)
	}
}
