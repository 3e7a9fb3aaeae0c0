package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ecomcore/order/internal/service/models/order"
)

// Respond writes the HTTP status matching the service error taxonomy.
func Respond(w http.ResponseWriter, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, order.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, order.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrDuplicateOrderNumber):
		status = http.StatusConflict
	}

	http.Error(w, err.Error(), status)
	slog.Error(msg, "error", err)
}
