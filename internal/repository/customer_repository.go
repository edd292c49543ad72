package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopsathi/shopsathi-api/internal/model"
)

// CustomerRepo provides scoped CRUD over the customers table.
type CustomerRepo struct {
	db *sql.DB
}

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerColumns = "id, user_id, name, phone, address, type, COALESCE(dues, 0)"

func scanCustomer(s rowScanner, c *model.Customer) error {
	return s.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Address, &c.Type, &c.Dues)
}

// List returns the scope's customers sorted by name.
func (r *CustomerRepo) List(ctx context.Context, scope model.Scope) ([]model.Customer, error) {
	where, args := scope.Filter("user_id")
	rows, err := r.db.QueryContext(ctx, "SELECT "+customerColumns+" FROM customers WHERE "+where+" ORDER BY name ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID returns the customer if it lives in the scope.
func (r *CustomerRepo) GetByID(ctx context.Context, scope model.Scope, id uint64) (*model.Customer, error) {
	where, args := scope.Filter("user_id")
	var c model.Customer
	err := scanCustomer(r.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = ? AND "+where, append([]any{id}, args...)...), &c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts c under the scope's owner.
func (r *CustomerRepo) Create(ctx context.Context, scope model.Scope, c *model.Customer) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO customers (user_id, name, phone, address, type, dues) VALUES (?, ?, ?, ?, ?, ?)",
		scope.OwnerValue(), c.Name, c.Phone, c.Address, c.Type, c.Dues)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.UserID = scope.OwnerPtr()
	return nil
}

// Update overwrites the customer's fields, dues included.  This is how dues
// get settled.
func (r *CustomerRepo) Update(ctx context.Context, scope model.Scope, c *model.Customer) (int64, error) {
	where, sargs := scope.Filter("user_id")
	args := []any{c.Name, c.Phone, c.Address, c.Type, c.Dues, c.ID}
	res, err := r.db.ExecContext(ctx,
		"UPDATE customers SET name = ?, phone = ?, address = ?, type = ?, dues = ? WHERE id = ? AND "+where,
		append(args, sargs...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the customer and reports ErrNotFound when nothing matched.
func (r *CustomerRepo) Delete(ctx context.Context, scope model.Scope, id uint64) error {
	where, sargs := scope.Filter("user_id")
	res, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = ? AND "+where, append([]any{id}, sargs...)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
