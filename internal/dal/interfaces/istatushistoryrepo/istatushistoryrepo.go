package istatushistoryrepo

import (
	"context"

	"github.com/ecomcore/order/internal/service/models/statushistory"
)

// IStatusHistoryRepository is an interface for the status history postgres
// repository. The table is append-only: there is no update or delete.
type IStatusHistoryRepository interface {
	BulkInsert(ctx context.Context, entries []statushistory.Entry) ([]statushistory.Entry, error)
	QueryByOrderIds(ctx context.Context, orderIds []int64) ([]statushistory.Entry, error)
}
