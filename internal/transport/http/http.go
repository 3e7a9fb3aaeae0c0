package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/ecomcore/order/internal/service/models/order"
	cancelorder "github.com/ecomcore/order/internal/transport/http/cancel_order"
	createorder "github.com/ecomcore/order/internal/transport/http/create_order"
	getorder "github.com/ecomcore/order/internal/transport/http/get_order"
	listorders "github.com/ecomcore/order/internal/transport/http/list_orders"
	updatestatus "github.com/ecomcore/order/internal/transport/http/update_status"
	updatetracking "github.com/ecomcore/order/internal/transport/http/update_tracking"
	"github.com/ecomcore/order/pkg/http/middleware/trace"
	"github.com/ecomcore/order/pkg/logger"
)

type service interface {
	CreateOrder(ctx context.Context, params order.CreateOrderParams) (*order.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*order.Order, error)
	GetOrderByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error)
	GetOrders(ctx context.Context, model order.QueryOrdersModel) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, newStatus order.Status, notes string, changedBy string) (*order.Order, error)
	UpdateTrackingNumber(ctx context.Context, id int64, trackingNumber string) (*order.Order, error)
	CancelOrder(ctx context.Context, id int64, reason string, cancelledBy string) (*order.Order, error)
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
}

func NewHTTPTransport(service service) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrderByID)
		r.Get("/number/{orderNumber}", h.getOrderByOrderNumber)
		r.Get("/user/{userId}", h.listOrdersByUser)
		r.Get("/status/{status}", h.listOrdersByStatus)
		r.Patch("/{id}/status", h.updateOrderStatus)
		r.Patch("/{id}/tracking", h.updateTrackingNumber)
		r.Post("/{id}/cancel", h.cancelOrder)
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) getOrderByID(w http.ResponseWriter, r *http.Request) {
	getorder.GetByID(w, r, h.service)
}

func (h *HTTPTransport) getOrderByOrderNumber(w http.ResponseWriter, r *http.Request) {
	getorder.GetByOrderNumber(w, r, h.service)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListAll(w, r, h.service)
}

func (h *HTTPTransport) listOrdersByUser(w http.ResponseWriter, r *http.Request) {
	listorders.ListByUser(w, r, h.service)
}

func (h *HTTPTransport) listOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	listorders.ListByStatus(w, r, h.service)
}

func (h *HTTPTransport) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	updatestatus.UpdateStatus(w, r, h.service)
}

func (h *HTTPTransport) updateTrackingNumber(w http.ResponseWriter, r *http.Request) {
	updatetracking.UpdateTracking(w, r, h.service)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelorder.CancelOrder(w, r, h.service)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
