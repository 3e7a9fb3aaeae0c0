package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ecomcore/order/internal/service/models/statushistory"
)

// StatusHistoryDal represents the status history data access layer model.
type StatusHistoryDal struct {
	Id        int64     `db:"id"`
	OrderId   int64     `db:"order_id"`
	Status    string    `db:"status"`
	Notes     string    `db:"notes"`
	ChangedBy string    `db:"changed_by"`
	CreatedAt time.Time `db:"created_at"`
}

// ToModel converts StatusHistoryDal to the service layer Entry model.
func (h *StatusHistoryDal) ToModel() *statushistory.Entry {
	return &statushistory.Entry{
		ID:        h.Id,
		OrderID:   h.OrderId,
		Status:    h.Status,
		Notes:     h.Notes,
		ChangedBy: h.ChangedBy,
		CreatedAt: h.CreatedAt,
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresStatusHistoryRepository represents a Postgres status history
// repository. The table is append-only.
type PostgresStatusHistoryRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresStatusHistoryRepository creates a new Postgres status history repository.
func NewPostgresStatusHistoryRepository(conn GenericConn) *PostgresStatusHistoryRepository {
	return &PostgresStatusHistoryRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert appends history entries and returns them with assigned ids.
func (r *PostgresStatusHistoryRepository) BulkInsert(
	ctx context.Context,
	entries []statushistory.Entry,
) ([]statushistory.Entry, error) {
	if len(entries) == 0 {
		return []statushistory.Entry{}, nil
	}

	builder := r.sb.
		Insert("order_status_history").
		Columns("order_id", "status", "notes", "changed_by", "created_at")

	for _, e := range entries {
		builder = builder.Values(e.OrderID, e.Status, e.Notes, e.ChangedBy, e.CreatedAt)
	}

	query, args, err := builder.
		Suffix("RETURNING id, order_id, status, notes, changed_by, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert status history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// QueryByOrderIds retrieves history entries for the given orders in
// chronological order.
func (r *PostgresStatusHistoryRepository) QueryByOrderIds(
	ctx context.Context,
	orderIds []int64,
) ([]statushistory.Entry, error) {
	if len(orderIds) == 0 {
		return []statushistory.Entry{}, nil
	}

	query, args, err := r.sb.
		Select("id", "order_id", "status", "notes", "changed_by", "created_at").
		From("order_status_history").
		Where(sq.Eq{"order_id": orderIds}).
		OrderBy("order_id", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]statushistory.Entry, error) {
	var result []statushistory.Entry
	for rows.Next() {
		var dal StatusHistoryDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.Status,
			&dal.Notes,
			&dal.ChangedBy,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status history entry: %w", err)
		}

		result = append(result, *dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
