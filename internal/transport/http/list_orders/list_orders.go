package listorders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"

	"github.com/ecomcore/order/internal/service/models/order"
	"github.com/ecomcore/order/internal/transport/http/httperr"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type service interface {
	GetOrders(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error)
}

type pageRequest struct {
	Page     int `schema:"page,omitempty"`
	PageSize int `schema:"pageSize,omitempty"`
}

func (q *pageRequest) limitOffset() (int, int) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	return size, (page - 1) * size
}

// ListAll handles listing all orders, paginated.
func ListAll(w http.ResponseWriter, r *http.Request, service service) {
	listWithFilter(w, r, service, order.QueryOrdersModel{})
}

// ListByUser handles listing one user's orders, paginated.
func ListByUser(w http.ResponseWriter, r *http.Request, service service) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		slog.Error("Error parsing user id", "error", err)

		return
	}

	listWithFilter(w, r, service, order.QueryOrdersModel{UserIds: []int64{userID}})
}

// ListByStatus handles listing orders in one status, paginated.
func ListByStatus(w http.ResponseWriter, r *http.Request, service service) {
	status, err := order.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		httperr.Respond(w, err, "Error parsing status")

		return
	}

	listWithFilter(w, r, service, order.QueryOrdersModel{Statuses: []order.Status{status}})
}

func listWithFilter(
	w http.ResponseWriter,
	r *http.Request,
	service service,
	filter order.QueryOrdersModel,
) {
	page := &pageRequest{}
	if err := schema.NewDecoder().Decode(page, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding pagination query", "error", err)

		return
	}
	filter.Limit, filter.Offset = page.limitOffset()

	orders, err := service.GetOrders(r.Context(), filter)
	if err != nil {
		httperr.Respond(w, err, "Error listing orders")

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		slog.Error("Error sending response for list orders", "error", err)
	}
}
