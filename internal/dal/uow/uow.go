package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ecomcore/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/ecomcore/order/internal/dal/interfaces/iorderrepo"
	"github.com/ecomcore/order/internal/dal/interfaces/istatushistoryrepo"
	"github.com/ecomcore/order/internal/dal/postgres"
	orderrepo "github.com/ecomcore/order/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/ecomcore/order/internal/dal/repositories/orderitem/postgres"
	statushistoryrepo "github.com/ecomcore/order/internal/dal/repositories/statushistory/postgres"
)

// UnitOfWork commits an order aggregate (order row, item rows, history rows)
// as one transaction. Outside Begin/Commit the repositories run directly on
// the pool.
type UnitOfWork struct {
	client            *postgres.Client
	tx                pgx.Tx
	orderRepo         iorderrepo.IOrderRepository
	orderItemRepo     iorderitemrepo.IOrderItemRepository
	statusHistoryRepo istatushistoryrepo.IStatusHistoryRepository
}

// NewUnitOfWork creates a unit of work bound to the connection pool.
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	return &UnitOfWork{
		client:            client,
		orderRepo:         orderrepo.NewPostgresOrderRepository(client.Pool()),
		orderItemRepo:     orderitemrepo.NewPostgresOrderItemRepository(client.Pool()),
		statusHistoryRepo: statushistoryrepo.NewPostgresStatusHistoryRepository(client.Pool()),
	}
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *UnitOfWork) StatusHistoryRepository() istatushistoryrepo.IStatusHistoryRepository {
	return u.statusHistoryRepo
}

// Begin starts a transaction and rebinds the repositories to it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewPostgresOrderRepository(tx)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(tx)
	u.statusHistoryRepo = statushistoryrepo.NewPostgresStatusHistoryRepository(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback(ctx)
}
