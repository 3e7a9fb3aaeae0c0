package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ecomcore/order/internal/service/models/order"
	"github.com/ecomcore/order/internal/service/models/orderitem"
	"github.com/ecomcore/order/internal/service/models/statushistory"
)

const pgUniqueViolation = "23505"

var orderColumns = []string{
	"id",
	"order_number",
	"user_id",
	"user_email",
	"status",
	"subtotal",
	"tax_amount",
	"shipping_amount",
	"discount_amount",
	"total_amount",
	"payment_method",
	"payment_status",
	"shipping_address_line1",
	"shipping_address_line2",
	"shipping_city",
	"shipping_state",
	"shipping_country",
	"shipping_postal_code",
	"notes",
	"tracking_number",
	"shipped_at",
	"delivered_at",
	"cancelled_at",
	"cancellation_reason",
	"created_at",
	"updated_at",
}

// OrderDal represents the order data access layer model.
type OrderDal struct {
	Id                   int64              `db:"id"`
	OrderNumber          string             `db:"order_number"`
	UserId               int64              `db:"user_id"`
	UserEmail            string             `db:"user_email"`
	Status               string             `db:"status"`
	Subtotal             decimal.Decimal    `db:"subtotal"`
	TaxAmount            decimal.Decimal    `db:"tax_amount"`
	ShippingAmount       decimal.Decimal    `db:"shipping_amount"`
	DiscountAmount       decimal.Decimal    `db:"discount_amount"`
	TotalAmount          decimal.Decimal    `db:"total_amount"`
	PaymentMethod        string             `db:"payment_method"`
	PaymentStatus        string             `db:"payment_status"`
	ShippingAddressLine1 string             `db:"shipping_address_line1"`
	ShippingAddressLine2 string             `db:"shipping_address_line2"`
	ShippingCity         string             `db:"shipping_city"`
	ShippingState        string             `db:"shipping_state"`
	ShippingCountry      string             `db:"shipping_country"`
	ShippingPostalCode   string             `db:"shipping_postal_code"`
	Notes                string             `db:"notes"`
	TrackingNumber       string             `db:"tracking_number"`
	ShippedAt            pgtype.Timestamptz `db:"shipped_at"`
	DeliveredAt          pgtype.Timestamptz `db:"delivered_at"`
	CancelledAt          pgtype.Timestamptz `db:"cancelled_at"`
	CancellationReason   string             `db:"cancellation_reason"`
	CreatedAt            time.Time          `db:"created_at"`
	UpdatedAt            time.Time          `db:"updated_at"`
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:             o.Id,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserId,
		UserEmail:      o.UserEmail,
		Status:         status,
		Subtotal:       o.Subtotal,
		TaxAmount:      o.TaxAmount,
		ShippingAmount: o.ShippingAmount,
		DiscountAmount: o.DiscountAmount,
		TotalAmount:    o.TotalAmount,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		ShippingAddress: order.ShippingAddress{
			Line1:      o.ShippingAddressLine1,
			Line2:      o.ShippingAddressLine2,
			City:       o.ShippingCity,
			State:      o.ShippingState,
			Country:    o.ShippingCountry,
			PostalCode: o.ShippingPostalCode,
		},
		Notes:              o.Notes,
		TrackingNumber:     o.TrackingNumber,
		ShippedAt:          timestampPtr(o.ShippedAt),
		DeliveredAt:        timestampPtr(o.DeliveredAt),
		CancelledAt:        timestampPtr(o.CancelledAt),
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Items:              []orderitem.OrderItem{}, // populated separately
		StatusHistory:      []statushistory.Entry{}, // populated separately
	}, nil
}

func timestampPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time

	return &t
}

func timestampFromPtr(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert persists a new order row and returns it with the assigned id. A
// unique violation on the order number index is mapped to
// order.ErrDuplicateOrderNumber so the caller can regenerate and retry.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (*order.Order, error) {
	query, args, err := r.sb.
		Insert("orders").
		Columns(orderColumns[1:]...).
		Values(
			o.OrderNumber,
			o.UserID,
			o.UserEmail,
			o.Status.String(),
			o.Subtotal,
			o.TaxAmount,
			o.ShippingAmount,
			o.DiscountAmount,
			o.TotalAmount,
			o.PaymentMethod,
			o.PaymentStatus,
			o.ShippingAddress.Line1,
			o.ShippingAddress.Line2,
			o.ShippingAddress.City,
			o.ShippingAddress.State,
			o.ShippingAddress.Country,
			o.ShippingAddress.PostalCode,
			o.Notes,
			o.TrackingNumber,
			timestampFromPtr(o.ShippedAt),
			timestampFromPtr(o.DeliveredAt),
			timestampFromPtr(o.CancelledAt),
			o.CancellationReason,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, query, args...).Scan(&o.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("%w: %s", order.ErrDuplicateOrderNumber, o.OrderNumber)
		}

		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return &o, nil
}

// Update persists the mutable part of an order row.
func (r *PostgresOrderRepository) Update(ctx context.Context, o order.Order) error {
	query, args, err := r.sb.
		Update("orders").
		Set("status", o.Status.String()).
		Set("payment_status", o.PaymentStatus).
		Set("notes", o.Notes).
		Set("tracking_number", o.TrackingNumber).
		Set("shipped_at", timestampFromPtr(o.ShippedAt)).
		Set("delivered_at", timestampFromPtr(o.DeliveredAt)).
		Set("cancelled_at", timestampFromPtr(o.CancelledAt)).
		Set("cancellation_reason", o.CancellationReason).
		Set("updated_at", o.UpdatedAt).
		Where(sq.Eq{"id": o.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", order.ErrNotFound, o.ID)
	}

	return nil
}

// GetByID loads one order row.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, false)
}

// GetByIDForUpdate loads one order row with FOR UPDATE, holding a row lock
// for the span of the surrounding transaction.
func (r *PostgresOrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, true)
}

// GetByOrderNumber loads one order row by its order number.
func (r *PostgresOrderRepository) GetByOrderNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.getOne(ctx, sq.Eq{"order_number": number}, false)
}

func (r *PostgresOrderRepository) getOne(ctx context.Context, where sq.Eq, forUpdate bool) (*order.Order, error) {
	builder := r.sb.
		Select(orderColumns...).
		From("orders").
		Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal OrderDal
	if err := scanOrder(r.conn.QueryRow(ctx, query, args...), &dal); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return dal.ToModel()
}

// Query retrieves order rows based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := r.sb.
		Select(orderColumns...).
		From("orders")

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.UserIds) > 0 {
		builder = builder.Where(sq.Eq{"user_id": filter.UserIds})
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}

	builder = builder.OrderBy("created_at DESC", "id DESC")

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
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		var dal OrderDal
		if err := scanOrder(rows, &dal); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func scanOrder(row pgx.Row, dal *OrderDal) error {
	return row.Scan(
		&dal.Id,
		&dal.OrderNumber,
		&dal.UserId,
		&dal.UserEmail,
		&dal.Status,
		&dal.Subtotal,
		&dal.TaxAmount,
		&dal.ShippingAmount,
		&dal.DiscountAmount,
		&dal.TotalAmount,
		&dal.PaymentMethod,
		&dal.PaymentStatus,
		&dal.ShippingAddressLine1,
		&dal.ShippingAddressLine2,
		&dal.ShippingCity,
		&dal.ShippingState,
		&dal.ShippingCountry,
		&dal.ShippingPostalCode,
		&dal.Notes,
		&dal.TrackingNumber,
		&dal.ShippedAt,
		&dal.DeliveredAt,
		&dal.CancelledAt,
		&dal.CancellationReason,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
}
