package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopsathi/shopsathi-api/internal/model"
)

// OrderRepo persists orders and their lines.  Writes happen inside a
// caller-owned transaction; the caller commits or rolls back.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the pool so that services can open transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts the order row within tx under the scope's owner and
// populates o.ID.  Totals must already be calculated.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, scope model.Scope, o *model.Order) error {
	const q = `INSERT INTO orders (user_id, customer_name, total_amount, discount, final_amount, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, scope.OwnerValue(), o.CustomerName, o.TotalAmount, o.Discount, o.FinalAmount, o.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.UserID = scope.OwnerPtr()
	return nil
}

// CreateItemsBulkTx inserts all order lines in a single statement.  Each
// item's OrderID must be set.  Passing an empty slice has no effect.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO order_items (order_id, product_id, product_name, quantity, price) VALUES ")
	args := make([]any, 0, len(items)*5)
	for i, it := range items {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.Price)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

const orderColumns = "id, user_id, customer_name, total_amount, discount, final_amount, created_at"

func scanOrder(s rowScanner, o *model.Order) error {
	return s.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.TotalAmount, &o.Discount, &o.FinalAmount, &o.CreatedAt)
}

// List returns the scope's orders newest first, without their lines.
func (r *OrderRepo) List(ctx context.Context, scope model.Scope) ([]model.Order, error) {
	where, args := scope.Filter("user_id")
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE "+where+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetByID loads an order in the scope together with its lines in insertion
// order.  Orders of other shops are reported as ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, scope model.Scope, id uint64) (*model.Order, error) {
	where, args := scope.Filter("user_id")
	var o model.Order
	err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ? AND "+where, append([]any{id}, args...)...), &o)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, product_name, quantity, price FROM order_items WHERE order_id = ? ORDER BY id", o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	o.Items = []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}
