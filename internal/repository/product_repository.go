package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopsathi/shopsathi-api/internal/model"
)

// ProductRepo provides scoped CRUD over the products table and the stock
// decrement used while an order is being created.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a ProductRepo bound to the given pool.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `id, user_id, name, size, color, price, COALESCE(purchase_price, 0), quantity,
       category, subcategory, COALESCE(product_type, 'ready-made')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner, p *model.Product) error {
	return s.Scan(&p.ID, &p.UserID, &p.Name, &p.Size, &p.Color, &p.Price, &p.PurchasePrice,
		&p.Quantity, &p.Category, &p.Subcategory, &p.ProductType)
}

// List returns every product in the scope ordered by id.
func (r *ProductRepo) List(ctx context.Context, scope model.Scope) ([]model.Product, error) {
	where, args := scope.Filter("user_id")
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products WHERE "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID returns the product only if it lives in the scope; otherwise
// ErrNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, scope model.Scope, id uint64) (*model.Product, error) {
	where, args := scope.Filter("user_id")
	args = append([]any{id}, args...)
	var p model.Product
	err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ? AND "+where, args...), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts p under the scope's owner and fills in its ID and UserID.
func (r *ProductRepo) Create(ctx context.Context, scope model.Scope, p *model.Product) error {
	const q = `INSERT INTO products (user_id, name, size, color, price, purchase_price, quantity, category, subcategory, product_type)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, scope.OwnerValue(), p.Name, p.Size, p.Color, p.Price, p.PurchasePrice,
		p.Quantity, p.Category, p.Subcategory, p.ProductType)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.UserID = scope.OwnerPtr()
	return nil
}

// Update replaces every editable field of the product identified by p.ID.
// A product outside the scope is left alone and 0 is returned.
func (r *ProductRepo) Update(ctx context.Context, scope model.Scope, p *model.Product) (int64, error) {
	where, sargs := scope.Filter("user_id")
	q := `UPDATE products
	      SET name = ?, size = ?, color = ?, price = ?, purchase_price = ?, quantity = ?, category = ?, subcategory = ?, product_type = ?
	      WHERE id = ? AND ` + where
	args := []any{p.Name, p.Size, p.Color, p.Price, p.PurchasePrice, p.Quantity, p.Category, p.Subcategory, p.ProductType, p.ID}
	res, err := r.db.ExecContext(ctx, q, append(args, sargs...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the product if it lives in the scope and returns the
// number of rows removed.
func (r *ProductRepo) Delete(ctx context.Context, scope model.Scope, id uint64) (int64, error) {
	where, sargs := scope.Filter("user_id")
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ? AND "+where, append([]any{id}, sargs...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DecrementStockTx lowers the product's quantity by qty inside tx.  The
// update is restricted to the scope, so a product with the same id in
// another shop is never touched.  The default is a blind relative update
// that can drive quantity negative.  With strict set, the row only changes
// when enough stock is on hand and ErrInsufficientStock is returned
// otherwise.  A line whose product is missing from the scope is not an
// error in lenient mode.
func (r *ProductRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, scope model.Scope, productID uint64, qty int64, strict bool) error {
	where, sargs := scope.Filter("user_id")
	q := "UPDATE products SET quantity = quantity - ? WHERE id = ? AND " + where
	args := append([]any{qty, productID}, sargs...)
	if strict {
		q += " AND quantity >= ?"
		args = append(args, qty)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if !strict {
		return nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}
