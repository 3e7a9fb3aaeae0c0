package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/ecomcore/order/internal/dal/interfaces/ieventpub"
	"github.com/ecomcore/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/ecomcore/order/internal/dal/interfaces/iorderrepo"
	"github.com/ecomcore/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/ecomcore/order/internal/dal/interfaces/istatushistoryrepo"
	"github.com/ecomcore/order/internal/dal/postgres"
	"github.com/ecomcore/order/internal/dal/uow"
	"github.com/ecomcore/order/internal/service/models/event"
	"github.com/ecomcore/order/internal/service/models/order"
	"github.com/ecomcore/order/internal/service/models/orderitem"
	"github.com/ecomcore/order/internal/service/models/outbox"
	"github.com/ecomcore/order/internal/service/ordernum"
)

const (
	contentTypeJSON = "application/json"
	publishTimeout  = 5 * time.Second

	defaultCreateAttempts   = 3
	defaultOutboxMaxRetries = 5
)

// OrderService is the order lifecycle engine: it constructs aggregates,
// drives the status state machine and triggers event publication. State
// changes commit as one transaction; publication failures never roll them
// back.
type OrderService struct {
	pgClient       *postgres.Client
	publisher      ieventpub.IEventPublisher
	outboxRepo     ioutboxrepo.IOutboxRepository
	uowFactory     func() unitOfWork
	createAttempts int
	outboxRetries  int
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	StatusHistoryRepository() istatushistoryrepo.IStatusHistoryRepository
}

func (s *OrderService) newUOW() unitOfWork {
	if s.uowFactory != nil {
		return s.uowFactory()
	}

	return uow.NewUnitOfWork(s.pgClient)
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		createAttempts: defaultCreateAttempts,
		outboxRetries:  defaultOutboxMaxRetries,
	}
	if retries := viper.GetInt("rabbitmq.outbox.max_retries"); retries > 0 {
		s.outboxRetries = retries
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithEventPublisher sets the lifecycle event publisher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventPublisher(publisher ieventpub.IEventPublisher) option {
	return func(s *OrderService) {
		s.publisher = publisher
	}
}

// WithOutboxRepository sets the outbox used for failed publishes.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutboxRepository(repo ioutboxrepo.IOutboxRepository) option {
	return func(s *OrderService) {
		s.outboxRepo = repo
	}
}

// CreateOrder constructs and persists a new order aggregate, then publishes
// the created event. On an order number collision at the store it retries
// with a freshly generated number a bounded number of times.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	params order.CreateOrderParams,
) (*order.Order, error) {
	var lastErr error
	for attempt := 0; attempt < s.createAttempts; attempt++ {
		o, err := order.New(params, ordernum.Generate(), time.Now())
		if err != nil {
			return nil, err
		}

		created, err := s.insertAggregate(ctx, o)
		if errors.Is(err, order.ErrDuplicateOrderNumber) {
			slog.Warn("Order number collision, regenerating",
				"order_number", o.OrderNumber,
				"attempt", attempt+1,
			)
			lastErr = err

			continue
		}
		if err != nil {
			return nil, err
		}

		s.publishOrderCreated(created)
		slog.Info("Order created", "order_number", created.OrderNumber, "user_id", created.UserID)

		return created, nil
	}

	return nil, lastErr
}

// insertAggregate commits the order row, its items and the initial history
// entry as one transaction.
func (s *OrderService) insertAggregate(ctx context.Context, o *order.Order) (*order.Order, error) {
	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	inserted, err := work.OrderRepository().Insert(ctx, *o)
	if err != nil {
		return nil, err
	}

	for i := range o.Items {
		o.Items[i].OrderID = inserted.ID
	}
	items, err := work.OrderItemRepository().BulkInsert(ctx, o.Items)
	if err != nil {
		return nil, err
	}

	for i := range o.StatusHistory {
		o.StatusHistory[i].OrderID = inserted.ID
	}
	history, err := work.StatusHistoryRepository().BulkInsert(ctx, o.StatusHistory)
	if err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	inserted.Items = items
	inserted.StatusHistory = history

	return inserted, nil
}

// UpdateOrderStatus transitions an order to newStatus, applying the
// status-specific side effects and appending the audit entry. The order row
// and the new history row commit together; the row lock taken by the load
// serializes concurrent transitions on the same order.
func (s *OrderService) UpdateOrderStatus(
	ctx context.Context,
	id int64,
	newStatus order.Status,
	notes string,
	changedBy string,
) (*order.Order, error) {
	if changedBy == "" {
		changedBy = order.ActorSystem
	}

	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	o, err := work.OrderRepository().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := o.Status
	if err := o.ApplyStatus(newStatus, notes, changedBy, time.Now()); err != nil {
		return nil, err
	}

	if err := work.OrderRepository().Update(ctx, *o); err != nil {
		return nil, err
	}

	for i := range o.StatusHistory {
		o.StatusHistory[i].OrderID = o.ID
	}
	if _, err := work.StatusHistoryRepository().BulkInsert(ctx, o.StatusHistory); err != nil {
		return nil, err
	}

	if err := s.attachChildren(ctx, work, o); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	s.publishStatusChanged(o, oldStatus, newStatus)
	slog.Info("Order status updated",
		"order_number", o.OrderNumber,
		"old_status", oldStatus,
		"new_status", newStatus,
	)

	return o, nil
}

// CancelOrder transitions the order to CANCELLED, recording the reason. The
// actor defaults to USER when unspecified.
func (s *OrderService) CancelOrder(
	ctx context.Context,
	id int64,
	reason string,
	cancelledBy string,
) (*order.Order, error) {
	if cancelledBy == "" {
		cancelledBy = order.ActorUser
	}

	return s.UpdateOrderStatus(ctx, id, order.StatusCancelled, reason, cancelledBy)
}

// UpdateTrackingNumber sets the tracking number. It appends no history entry
// and publishes no event.
func (s *OrderService) UpdateTrackingNumber(
	ctx context.Context,
	id int64,
	trackingNumber string,
) (*order.Order, error) {
	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	o, err := work.OrderRepository().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	o.TrackingNumber = trackingNumber
	o.UpdatedAt = time.Now()

	if err := work.OrderRepository().Update(ctx, *o); err != nil {
		return nil, err
	}

	if err := s.attachChildren(ctx, work, o); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	slog.Info("Tracking number updated", "order_number", o.OrderNumber, "tracking_number", trackingNumber)

	return o, nil
}

// GetOrderByID retrieves one full aggregate.
func (s *OrderService) GetOrderByID(ctx context.Context, id int64) (*order.Order, error) {
	work := s.newUOW()

	o, err := work.OrderRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.attachChildren(ctx, work, o); err != nil {
		return nil, err
	}

	return o, nil
}

// GetOrderByOrderNumber retrieves one full aggregate by its order number.
func (s *OrderService) GetOrderByOrderNumber(ctx context.Context, number string) (*order.Order, error) {
	work := s.newUOW()

	o, err := work.OrderRepository().GetByOrderNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	if err := s.attachChildren(ctx, work, o); err != nil {
		return nil, err
	}

	return o, nil
}

// GetOrders retrieves orders matching the filter with their items attached.
func (s *OrderService) GetOrders(
	ctx context.Context,
	filter order.QueryOrdersModel,
) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &filter)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	itemQuery := &orderitem.QueryOrderItemsModel{}
	for _, o := range orders {
		itemQuery.OrderIds = append(itemQuery.OrderIds, o.ID)
	}
	items, err := work.OrderItemRepository().Query(ctx, itemQuery)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].Items = append(orders[i].Items, item)
			}
		}
	}

	return orders, nil
}

// attachChildren loads the items and full status history of one order.
func (s *OrderService) attachChildren(ctx context.Context, work unitOfWork, o *order.Order) error {
	items, err := work.OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{
		OrderIds: []int64{o.ID},
	})
	if err != nil {
		return err
	}
	o.Items = items

	history, err := work.StatusHistoryRepository().QueryByOrderIds(ctx, []int64{o.ID})
	if err != nil {
		return err
	}
	o.StatusHistory = history

	return nil
}

func (s *OrderService) publishOrderCreated(o *order.Order) {
	payload, err := json.Marshal(event.OrderCreated{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status.String(),
	})
	if err != nil {
		slog.Error("Failed to marshal order created event", "order_number", o.OrderNumber, "error", err)

		return
	}

	s.publishOrQueue(event.QueueOrderCreated, payload)
}

func (s *OrderService) publishStatusChanged(o *order.Order, oldStatus, newStatus order.Status) {
	payload, err := json.Marshal(event.OrderStatusChanged{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OldStatus:   oldStatus.String(),
		NewStatus:   newStatus.String(),
	})
	if err != nil {
		slog.Error("Failed to marshal status changed event", "order_number", o.OrderNumber, "error", err)

		return
	}

	s.publishOrQueue(event.QueueOrderStatusChanged, payload)
}

// publishOrQueue attempts one publish on a context detached from the request;
// the state change is already committed by the time this runs and must not be
// affected by what happens here. A failed publish is handed to the outbox for
// redelivery.
func (s *OrderService) publishOrQueue(queueName string, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, queueName, payload)
	if err == nil {
		return
	}

	slog.Error("Failed to publish event, queueing to outbox", "queue", queueName, "error", err)

	if s.outboxRepo == nil {
		return
	}

	now := time.Now()
	msg := outbox.Message{
		QueueName:   queueName,
		RoutingKey:  queueName,
		Payload:     payload,
		ContentType: contentTypeJSON,
		MaxRetries:  s.outboxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}
	if err := s.outboxRepo.Insert(ctx, msg); err != nil {
		slog.Error("Failed to insert outbox message", "queue", queueName, "error", err)
	}
}
