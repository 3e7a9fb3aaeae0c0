package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ecomcore/order/internal/service/models/orderitem"
)

var orderItemColumns = []string{
	"id",
	"order_id",
	"product_id",
	"product_sku",
	"product_name",
	"quantity",
	"unit_price",
	"discount_amount",
	"tax_amount",
	"total_price",
	"created_at",
	"updated_at",
}

// OrderItemDal represents the order item data access layer model.
type OrderItemDal struct {
	Id             int64           `db:"id"`
	OrderId        int64           `db:"order_id"`
	ProductId      int64           `db:"product_id"`
	ProductSku     string          `db:"product_sku"`
	ProductName    string          `db:"product_name"`
	Quantity       int             `db:"quantity"`
	UnitPrice      decimal.Decimal `db:"unit_price"`
	DiscountAmount decimal.Decimal `db:"discount_amount"`
	TaxAmount      decimal.Decimal `db:"tax_amount"`
	TotalPrice     decimal.Decimal `db:"total_price"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// ToModel converts OrderItemDal to the service layer OrderItem model.
func (oi *OrderItemDal) ToModel() *orderitem.OrderItem {
	return &orderitem.OrderItem{
		ID:             oi.Id,
		OrderID:        oi.OrderId,
		ProductID:      oi.ProductId,
		ProductSku:     oi.ProductSku,
		ProductName:    oi.ProductName,
		Quantity:       oi.Quantity,
		UnitPrice:      oi.UnitPrice,
		DiscountAmount: oi.DiscountAmount,
		TaxAmount:      oi.TaxAmount,
		TotalPrice:     oi.TotalPrice,
		CreatedAt:      oi.CreatedAt,
		UpdatedAt:      oi.UpdatedAt,
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts multiple order items and returns them with assigned ids.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	items []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(items) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	builder := r.sb.
		Insert("order_items").
		Columns(orderItemColumns[1:]...)

	for _, item := range items {
		builder = builder.Values(
			item.OrderID,
			item.ProductID,
			item.ProductSku,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.DiscountAmount,
			item.TaxAmount,
			item.TotalPrice,
			item.CreatedAt,
			item.UpdatedAt,
		)
	}

	query, args, err := builder.
		Suffix("RETURNING " + columnList(orderItemColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	builder := r.sb.
		Select(orderItemColumns...).
		From("order_items")

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.OrderIds) > 0 {
		builder = builder.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	builder = builder.OrderBy("order_id", "id")

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows pgx.Rows) ([]orderitem.OrderItem, error) {
	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.ProductSku,
			&dal.ProductName,
			&dal.Quantity,
			&dal.UnitPrice,
			&dal.DiscountAmount,
			&dal.TaxAmount,
			&dal.TotalPrice,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		result = append(result, *dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func columnList(columns []string) string {
	list := columns[0]
	for _, c := range columns[1:] {
		list += ", " + c
	}

	return list
}
