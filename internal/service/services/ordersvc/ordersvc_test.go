package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecomcore/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/ecomcore/order/internal/dal/interfaces/iorderrepo"
	"github.com/ecomcore/order/internal/dal/interfaces/istatushistoryrepo"
	"github.com/ecomcore/order/internal/service/models/event"
	"github.com/ecomcore/order/internal/service/models/order"
	"github.com/ecomcore/order/internal/service/models/orderitem"
	"github.com/ecomcore/order/internal/service/models/outbox"
	"github.com/ecomcore/order/internal/service/models/statushistory"
)

// fakeStore is an in-memory order store implementing the repository
// interfaces used by the unit of work.
type fakeStore struct {
	nextID        int64
	nextChildID   int64
	orders        map[int64]order.Order
	items         map[int64][]orderitem.OrderItem
	history       map[int64][]statushistory.Entry
	insertCalls   int
	failDuplicate int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:  make(map[int64]order.Order),
		items:   make(map[int64][]orderitem.OrderItem),
		history: make(map[int64][]statushistory.Entry),
	}
}

func (st *fakeStore) Insert(_ context.Context, o order.Order) (*order.Order, error) {
	st.insertCalls++
	if st.failDuplicate > 0 {
		st.failDuplicate--
		return nil, fmt.Errorf("%w: %s", order.ErrDuplicateOrderNumber, o.OrderNumber)
	}
	for _, existing := range st.orders {
		if existing.OrderNumber == o.OrderNumber {
			return nil, fmt.Errorf("%w: %s", order.ErrDuplicateOrderNumber, o.OrderNumber)
		}
	}

	st.nextID++
	o.ID = st.nextID
	stored := o
	stored.Items = nil
	stored.StatusHistory = nil
	st.orders[o.ID] = stored

	result := stored
	return &result, nil
}

func (st *fakeStore) Update(_ context.Context, o order.Order) error {
	if _, ok := st.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	stored := o
	stored.Items = nil
	stored.StatusHistory = nil
	st.orders[o.ID] = stored

	return nil
}

func (st *fakeStore) GetByID(_ context.Context, id int64) (*order.Order, error) {
	o, ok := st.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	result := o

	return &result, nil
}

func (st *fakeStore) GetByIDForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	return st.GetByID(ctx, id)
}

func (st *fakeStore) GetByOrderNumber(_ context.Context, number string) (*order.Order, error) {
	for _, o := range st.orders {
		if o.OrderNumber == number {
			result := o
			return &result, nil
		}
	}

	return nil, order.ErrNotFound
}

func (st *fakeStore) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	var result []order.Order
	for _, o := range st.orders {
		if len(filter.UserIds) > 0 && !containsInt64(filter.UserIds, o.UserID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		result = append(result, o)
	}

	return result, nil
}

func (st *fakeStore) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	for i := range items {
		st.nextChildID++
		items[i].ID = st.nextChildID
		st.items[items[i].OrderID] = append(st.items[items[i].OrderID], items[i])
	}

	return items, nil
}

func (st *fakeStore) QueryItems(_ context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	var result []orderitem.OrderItem
	for _, id := range filter.OrderIds {
		result = append(result, st.items[id]...)
	}

	return result, nil
}

func (st *fakeStore) InsertHistory(_ context.Context, entries []statushistory.Entry) ([]statushistory.Entry, error) {
	for i := range entries {
		st.nextChildID++
		entries[i].ID = st.nextChildID
		st.history[entries[i].OrderID] = append(st.history[entries[i].OrderID], entries[i])
	}

	return entries, nil
}

func (st *fakeStore) QueryByOrderIds(_ context.Context, orderIds []int64) ([]statushistory.Entry, error) {
	var result []statushistory.Entry
	for _, id := range orderIds {
		result = append(result, st.history[id]...)
	}

	return result, nil
}

// itemRepo and historyRepo adapt fakeStore to the repo interfaces whose
// method names collide with the order repository's.
type itemRepo struct{ st *fakeStore }

func (r itemRepo) BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	return r.st.BulkInsert(ctx, items)
}

func (r itemRepo) Query(ctx context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	return r.st.QueryItems(ctx, filter)
}

type historyRepo struct{ st *fakeStore }

func (r historyRepo) BulkInsert(ctx context.Context, entries []statushistory.Entry) ([]statushistory.Entry, error) {
	return r.st.InsertHistory(ctx, entries)
}

func (r historyRepo) QueryByOrderIds(ctx context.Context, orderIds []int64) ([]statushistory.Entry, error) {
	return r.st.QueryByOrderIds(ctx, orderIds)
}

type fakeUOW struct{ st *fakeStore }

func (f *fakeUOW) Begin(context.Context) error    { return nil }
func (f *fakeUOW) Commit(context.Context) error   { return nil }
func (f *fakeUOW) Rollback(context.Context) error { return nil }

func (f *fakeUOW) OrderRepository() iorderrepo.IOrderRepository { return f.st }

func (f *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return itemRepo{st: f.st}
}

func (f *fakeUOW) StatusHistoryRepository() istatushistoryrepo.IStatusHistoryRepository {
	return historyRepo{st: f.st}
}

type publishedMessage struct {
	queue   string
	payload []byte
}

type fakePublisher struct {
	published []publishedMessage
	failAll   bool
}

func (p *fakePublisher) Publish(_ context.Context, queueName string, payload []byte) error {
	if p.failAll {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, publishedMessage{queue: queueName, payload: payload})

	return nil
}

type fakeOutbox struct {
	messages []outbox.Message
}

func (o *fakeOutbox) Insert(_ context.Context, msg outbox.Message) error {
	o.messages = append(o.messages, msg)
	return nil
}

func (o *fakeOutbox) GetPendingMessages(context.Context, int) ([]outbox.Message, error) {
	return o.messages, nil
}

func (o *fakeOutbox) Delete(context.Context, int64) error { return nil }

func (o *fakeOutbox) UpdateRetry(context.Context, int64, int, string, time.Time) error {
	return nil
}

func containsInt64(values []int64, v int64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsStatus(values []order.Status, v order.Status) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func newTestService(st *fakeStore, pub *fakePublisher, ob *fakeOutbox) *OrderService {
	opts := []option{WithEventPublisher(pub)}
	if ob != nil {
		opts = append(opts, WithOutboxRepository(ob))
	}
	svc := MustNewOrderService(opts...)
	svc.uowFactory = func() unitOfWork { return &fakeUOW{st: st} }

	return svc
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validParams() order.CreateOrderParams {
	return order.CreateOrderParams{
		UserID:        7,
		UserEmail:     "buyer@example.com",
		PaymentMethod: "CREDIT_CARD",
		ShippingAddress: order.ShippingAddress{
			Line1:      "1 Main St",
			City:       "Springfield",
			State:      "IL",
			Country:    "US",
			PostalCode: "62701",
		},
		Items: []order.ItemParams{
			{ProductID: 1, ProductSku: "SKU-1", ProductName: "Widget", Quantity: 2, UnitPrice: d("10.00"), TaxAmount: d("1.00")},
			{ProductID: 2, ProductSku: "SKU-2", ProductName: "Gadget", Quantity: 1, UnitPrice: d("5.00")},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, nil)

	o, err := svc.CreateOrder(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if o.ID == 0 {
		t.Error("Expected order ID to be set")
	}
	if o.OrderNumber == "" {
		t.Error("Expected order number to be set")
	}
	if o.Status != order.StatusPending {
		t.Errorf("Expected status %s, got %s", order.StatusPending, o.Status)
	}
	if !o.Subtotal.Equal(d("25.00")) {
		t.Errorf("Expected subtotal 25.00, got %s", o.Subtotal)
	}
	if !o.TotalAmount.Equal(d("26.00")) {
		t.Errorf("Expected total 26.00, got %s", o.TotalAmount)
	}
	if len(o.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(o.Items))
	}
	if len(o.StatusHistory) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(o.StatusHistory))
	}
	if o.StatusHistory[0].Status != order.StatusPending.String() {
		t.Errorf("Expected initial history status PENDING, got %s", o.StatusHistory[0].Status)
	}

	if len(pub.published) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(pub.published))
	}
	if pub.published[0].queue != event.QueueOrderCreated {
		t.Errorf("Expected queue %s, got %s", event.QueueOrderCreated, pub.published[0].queue)
	}
	var created event.OrderCreated
	if err := json.Unmarshal(pub.published[0].payload, &created); err != nil {
		t.Fatalf("Failed to unmarshal created event: %v", err)
	}
	if created.OrderID != o.ID || created.OrderNumber != o.OrderNumber {
		t.Errorf("Event identity mismatch: %+v", created)
	}
	if created.Status != order.StatusPending.String() {
		t.Errorf("Expected event status PENDING, got %s", created.Status)
	}
}

func TestCreateOrderEmptyItemsRejectedBeforePersistence(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, nil)

	params := validParams()
	params.Items = nil

	_, err := svc.CreateOrder(context.Background(), params)
	if !errors.Is(err, order.ErrValidation) {
		t.Fatalf("Expected validation error, got: %v", err)
	}
	if st.insertCalls != 0 {
		t.Errorf("Expected no persistence calls, got %d", st.insertCalls)
	}
	if len(pub.published) != 0 {
		t.Errorf("Expected no published events, got %d", len(pub.published))
	}
}

func TestCreateOrderRetriesOnDuplicateNumber(t *testing.T) {
	st := newFakeStore()
	st.failDuplicate = 1
	pub := &fakePublisher{}
	svc := newTestService(st, pub, nil)

	o, err := svc.CreateOrder(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if st.insertCalls != 2 {
		t.Errorf("Expected 2 insert attempts, got %d", st.insertCalls)
	}
	if o.ID == 0 {
		t.Error("Expected order ID to be set")
	}
	if len(pub.published) != 1 {
		t.Errorf("Expected exactly 1 published event, got %d", len(pub.published))
	}
}

func TestCreateOrderDuplicateRetriesExhausted(t *testing.T) {
	st := newFakeStore()
	st.failDuplicate = 10
	pub := &fakePublisher{}
	svc := newTestService(st, pub, nil)

	_, err := svc.CreateOrder(context.Background(), validParams())
	if !errors.Is(err, order.ErrDuplicateOrderNumber) {
		t.Fatalf("Expected duplicate order number error, got: %v", err)
	}
	if st.insertCalls != defaultCreateAttempts {
		t.Errorf("Expected %d insert attempts, got %d", defaultCreateAttempts, st.insertCalls)
	}
	if len(pub.published) != 0 {
		t.Errorf("Expected no published events, got %d", len(pub.published))
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, nil)

	o, err := svc.CreateOrder(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	updated, err := svc.UpdateOrderStatus(context.Background(), o.ID, order.StatusConfirmed, "payment received", "SYSTEM")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if updated.Status != order.StatusConfirmed {
		t.Errorf("Expected status CONFIRMED, got %s", updated.Status)
	}
	if len(updated.StatusHistory) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(updated.StatusHistory))
	}
	if updated.StatusHistory[1].Status != order.StatusConfirmed.String() {
		t.Errorf("Expected last history status CONFIRMED, got %s", updated.StatusHistory[1].Status)
	}

	if len(pub.published) != 2 {
		t.Fatalf("Expected 2 published events, got %d", len(pub.published))
	}
	var changed event.OrderStatusChanged
	if err := json.Unmarshal(pub.published[1].payload, &changed); err != nil {
		t.Fatalf("Failed to unmarshal status changed event: %v", err)
	}
	if changed.OldStatus != order.StatusPending.String() || changed.NewStatus != order.StatusConfirmed.String() {
		t.Errorf("Unexpected old/new statuses: %+v", changed)
	}
}

func TestUpdateOrderStatusShippedSetsTimestamp(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, nil)

	o, _ := svc.CreateOrder(context.Background(), validParams())
	ctx := context.Background()
	if _, err := svc.UpdateOrderStatus(ctx, o.ID, order.StatusConfirmed, "", ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, o.ID, order.StatusProcessing, "", ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	shipped, err := svc.UpdateOrderStatus(ctx, o.ID, order.StatusShipped, "left warehouse", "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if shipped.ShippedAt == nil {
		t.Fatal("Expected shippedAt to be set")
	}
	if len(shipped.StatusHistory) != 4 {
		t.Errorf("Expected 4 history entries, got %d", len(shipped.StatusHistory))
	}

	reread, err := svc.GetOrderByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if reread.Status != order.StatusShipped {
		t.Errorf("Expected persisted status SHIPPED, got %s", reread.Status)
	}
	if reread.ShippedAt == nil {
		t.Error("Expected persisted shippedAt to be set")
	}
}

func TestUpdateOrderStatusInvalidTransition(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, nil)

	o, _ := svc.CreateOrder(context.Background(), validParams())
	publishedBefore := len(pub.published)

	_, err := svc.UpdateOrderStatus(context.Background(), o.ID, order.StatusDelivered, "", "")
	if !errors.Is(err, order.ErrInvalidTransition) {
		t.Fatalf("Expected invalid transition error, got: %v", err)
	}

	reread, _ := svc.GetOrderByID(context.Background(), o.ID)
	if reread.Status != order.StatusPending {
		t.Errorf("Expected status to remain PENDING, got %s", reread.Status)
	}
	if len(reread.StatusHistory) != 1 {
		t.Errorf("Expected history unchanged, got %d entries", len(reread.StatusHistory))
	}
	if len(pub.published) != publishedBefore {
		t.Errorf("Expected no new published events, got %d", len(pub.published)-publishedBefore)
	}
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakePublisher{}, nil)

	_, err := svc.UpdateOrderStatus(context.Background(), 12345, order.StatusConfirmed, "", "")
	if !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("Expected not found error, got: %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, nil)

	o, _ := svc.CreateOrder(context.Background(), validParams())

	cancelled, err := svc.CancelOrder(context.Background(), o.ID, "out of stock", "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cancelled.Status != order.StatusCancelled {
		t.Errorf("Expected status CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Error("Expected cancelledAt to be set")
	}
	if cancelled.CancellationReason != "out of stock" {
		t.Errorf("Expected cancellation reason 'out of stock', got %q", cancelled.CancellationReason)
	}
	if len(cancelled.StatusHistory) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(cancelled.StatusHistory))
	}
	if cancelled.StatusHistory[1].ChangedBy != order.ActorUser {
		t.Errorf("Expected default actor USER, got %s", cancelled.StatusHistory[1].ChangedBy)
	}
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	ob := &fakeOutbox{}
	svc := newTestService(st, pub, ob)

	o, _ := svc.CreateOrder(context.Background(), validParams())

	pub.failAll = true
	updated, err := svc.UpdateOrderStatus(context.Background(), o.ID, order.StatusConfirmed, "", "")
	if err != nil {
		t.Fatalf("Expected transition to succeed despite publish failure, got: %v", err)
	}
	if updated.Status != order.StatusConfirmed {
		t.Errorf("Expected status CONFIRMED, got %s", updated.Status)
	}

	reread, _ := svc.GetOrderByID(context.Background(), o.ID)
	if reread.Status != order.StatusConfirmed {
		t.Errorf("Expected persisted status CONFIRMED after failed publish, got %s", reread.Status)
	}

	if len(ob.messages) != 1 {
		t.Fatalf("Expected 1 outboxed message, got %d", len(ob.messages))
	}
	if ob.messages[0].QueueName != event.QueueOrderStatusChanged {
		t.Errorf("Expected outboxed queue %s, got %s", event.QueueOrderStatusChanged, ob.messages[0].QueueName)
	}
}

func TestUpdateTrackingNumber(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, nil)

	o, _ := svc.CreateOrder(context.Background(), validParams())
	publishedBefore := len(pub.published)

	updated, err := svc.UpdateTrackingNumber(context.Background(), o.ID, "TRACK-123")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if updated.TrackingNumber != "TRACK-123" {
		t.Errorf("Expected tracking number TRACK-123, got %s", updated.TrackingNumber)
	}
	if len(updated.StatusHistory) != 1 {
		t.Errorf("Expected history unchanged, got %d entries", len(updated.StatusHistory))
	}
	if len(pub.published) != publishedBefore {
		t.Errorf("Expected no new published events, got %d", len(pub.published)-publishedBefore)
	}
}

func TestGetOrderByOrderNumber(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakePublisher{}, nil)

	o, _ := svc.CreateOrder(context.Background(), validParams())

	found, err := svc.GetOrderByOrderNumber(context.Background(), o.OrderNumber)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if found.ID != o.ID {
		t.Errorf("Expected order %d, got %d", o.ID, found.ID)
	}
	if len(found.Items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(found.Items))
	}

	_, err = svc.GetOrderByOrderNumber(context.Background(), "ORD-00000000000000-FFFFFFFF")
	if !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("Expected not found error, got: %v", err)
	}
}

func TestGetOrdersFilters(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakePublisher{}, nil)

	first, _ := svc.CreateOrder(context.Background(), validParams())
	params := validParams()
	params.UserID = 8
	if _, err := svc.CreateOrder(context.Background(), params); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	byUser, err := svc.GetOrders(context.Background(), order.QueryOrdersModel{UserIds: []int64{7}})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(byUser) != 1 || byUser[0].ID != first.ID {
		t.Fatalf("Expected only user 7's order, got %d orders", len(byUser))
	}
	if len(byUser[0].Items) != 2 {
		t.Errorf("Expected items attached, got %d", len(byUser[0].Items))
	}

	byStatus, err := svc.GetOrders(context.Background(), order.QueryOrdersModel{Statuses: []order.Status{order.StatusPending}})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(byStatus) != 2 {
		t.Errorf("Expected 2 pending orders, got %d", len(byStatus))
	}
}
